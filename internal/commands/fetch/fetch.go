package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"swa/internal/client"
)

// Run GETs path with the stored credential and copies the body to out. An
// unauthorized response expires the local session.
func Run(ctx context.Context, c *client.Client, path string, out io.Writer) error {
	resp, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("fetch %s: %s", path, resp.Status)
	}
	return nil
}
