package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// navigator performs the terminal navigation for the CLI: it loads the
// page at path without credentials and replaces the stored location.
type navigator struct {
	c *Client
}

func (n *navigator) NavigateTo(ctx context.Context, path string) error {
	if err := n.c.store.Set(ctx, locationKey, []byte(path)); err != nil {
		return fmt.Errorf("client: record location: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.c.resolve(path), nil)
	if err != nil {
		return err
	}
	resp, err := n.c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: navigate to %s: %w", path, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("client: navigate to %s: %s", path, resp.Status)
	}
	return nil
}
