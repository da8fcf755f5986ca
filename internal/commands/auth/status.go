package auth

import (
	"context"
	"fmt"
	"io"

	"swa/internal/client"
	"swa/internal/token"
)

// Status prints the state of the local session record.
func Status(ctx context.Context, c *client.Client, out io.Writer) error {
	state, location, err := c.Status(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Origin: %s\n", c.Origin())
	switch state {
	case token.Live:
		fmt.Fprintln(out, "Session: live")
	case token.Expired:
		fmt.Fprintf(out, "Session: %sexpired%s, log in again\n", "\033[33m", "\033[0m") // yellow
	default:
		fmt.Fprintln(out, "Session: none")
	}
	if location != "" {
		fmt.Fprintf(out, "Location: %s\n", location)
	}
	return nil
}
