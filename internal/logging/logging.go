// Package logging builds the process logger.
package logging

import (
	"go.uber.org/zap"
)

// New returns a development logger when debug is set and a production
// (JSON) logger otherwise. It falls back to a no-op logger if zap cannot
// be configured.
func New(debug bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
