package auth

import (
	"context"
	"fmt"
	"io"
	"strings"

	"swa/internal/client"
)

// SetToken stores a credential issued by the identity provider as the live
// session record.
func SetToken(ctx context.Context, c *client.Client, credential string, out io.Writer) error {
	credential = strings.TrimSpace(credential)
	if err := c.SetToken(ctx, credential); err != nil {
		return err
	}
	fmt.Fprintf(out, "Token stored for %s.\n", c.Origin())
	return nil
}
