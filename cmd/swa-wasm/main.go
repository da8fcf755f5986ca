//go:build js && wasm

package main

import (
	"context"
	"syscall/js"

	"go.uber.org/zap"

	"swa/internal/browser"
	"swa/internal/terminator"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		log = zap.NewNop()
	}
	t := browser.New(
		terminator.WithCookieNames("session"),
		terminator.WithLogger(log),
	)

	// swaTerminate(expired) ends the session and replaces the page with "/".
	js.Global().Set("swaTerminate", js.FuncOf(func(this js.Value, args []js.Value) any {
		expired := len(args) > 0 && args[0].Truthy()
		if err := t.Terminate(context.Background(), expired); err != nil {
			return err.Error()
		}
		return nil
	}))

	select {}
}
