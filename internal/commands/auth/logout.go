package auth

import (
	"context"
	"errors"
	"fmt"
	"io"

	"swa/internal/client"
	"swa/internal/terminator"
)

type LogoutFlags struct {
	Expired bool
}

// Logout terminates the local session. A navigation failure alone is only
// reported: the record and cookies are already gone at that point.
func Logout(ctx context.Context, c *client.Client, flags LogoutFlags, out io.Writer) error {
	err := c.Logout(ctx, flags.Expired)
	if err != nil && !onlyNavigation(err) {
		return err
	}
	if err != nil {
		fmt.Fprintf(out, "Could not reach %s: %v\n", c.Origin(), err)
	}

	if flags.Expired {
		fmt.Fprintln(out, "Session marked as expired.")
		return nil
	}
	fmt.Fprintln(out, "Logout successful.")
	return nil
}

func onlyNavigation(err error) bool {
	return errors.Is(err, terminator.ErrNavigation) &&
		!errors.Is(err, terminator.ErrStorage) &&
		!errors.Is(err, terminator.ErrCookies)
}
