package auth

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swa/internal/client"
	"swa/internal/terminator"
	"swa/internal/token"
	"swa/pkg/kv"
)

func newClient(t *testing.T, store kv.Store) (*client.Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	t.Cleanup(ts.Close)
	c, err := client.New(context.Background(), client.Options{BaseURL: ts.URL, Store: store})
	require.NoError(t, err)
	return c, ts
}

func TestLogoutCommand(t *testing.T) {
	ctx := context.Background()
	c, _ := newClient(t, kv.NewMemory())
	require.NoError(t, SetToken(ctx, c, " abc\n", &bytes.Buffer{}))

	var out bytes.Buffer
	require.NoError(t, Logout(ctx, c, LogoutFlags{}, &out))
	assert.Equal(t, "Logout successful.\n", out.String())

	state, loc, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, token.Absent, state)
	assert.Equal(t, "/", loc)
}

func TestLogoutCommandExpired(t *testing.T) {
	ctx := context.Background()
	c, _ := newClient(t, kv.NewMemory())

	var out bytes.Buffer
	require.NoError(t, Logout(ctx, c, LogoutFlags{Expired: true}, &out))
	assert.Equal(t, "Session marked as expired.\n", out.String())

	out.Reset()
	require.NoError(t, Status(ctx, c, &out))
	assert.Contains(t, out.String(), "expired")
	assert.Contains(t, out.String(), "Location: /")
}

func TestLogoutCommandServerDown(t *testing.T) {
	ctx := context.Background()
	c, ts := newClient(t, kv.NewMemory())
	require.NoError(t, c.SetToken(ctx, "abc"))
	ts.Close()

	var out bytes.Buffer
	require.NoError(t, Logout(ctx, c, LogoutFlags{}, &out))
	assert.Contains(t, out.String(), "Could not reach")
	assert.Contains(t, out.String(), "Logout successful.")

	state, _, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, token.Absent, state)
}

type brokenStore struct {
	*kv.Memory
}

func (brokenStore) Delete(context.Context, string) error {
	return errors.New("disk full")
}

func TestLogoutCommandStorageFailure(t *testing.T) {
	c, _ := newClient(t, brokenStore{kv.NewMemory()})

	var out bytes.Buffer
	err := Logout(context.Background(), c, LogoutFlags{}, &out)
	assert.ErrorIs(t, err, terminator.ErrStorage)
	assert.Empty(t, out.String())
}

func TestStatusCommand(t *testing.T) {
	ctx := context.Background()
	c, _ := newClient(t, kv.NewMemory())

	var out bytes.Buffer
	require.NoError(t, Status(ctx, c, &out))
	assert.Contains(t, out.String(), "Session: none")
	assert.NotContains(t, out.String(), "Location")

	require.NoError(t, SetToken(ctx, c, "abc", &out))
	out.Reset()
	require.NoError(t, Status(ctx, c, &out))
	assert.Contains(t, out.String(), "Session: live")
	assert.Contains(t, out.String(), "Origin: "+c.Origin())
}

func TestSetTokenRejectsEmpty(t *testing.T) {
	c, _ := newClient(t, kv.NewMemory())
	err := SetToken(context.Background(), c, "  ", &bytes.Buffer{})
	assert.Error(t, err)
}
