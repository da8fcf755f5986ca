package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swa/internal/terminator"
	"swa/internal/token"
	"swa/pkg/kv"
)

type testApp struct {
	*httptest.Server
	rootHits atomic.Int32
	lastAuth atomic.Value
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	app := &testApp{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		app.rootHits.Add(1)
		w.Write([]byte("root"))
	})
	mux.HandleFunc("GET /hello", func(w http.ResponseWriter, r *http.Request) {
		app.lastAuth.Store(r.Header.Get("Authorization"))
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "s1", Path: "/"})
		http.SetCookie(w, &http.Cookie{Name: "theme", Value: "dark", Path: "/"})
		w.Write([]byte("hello"))
	})
	mux.HandleFunc("GET /private", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
	app.Server = httptest.NewServer(mux)
	t.Cleanup(app.Close)
	return app
}

func newTestClient(t *testing.T, app *testApp, store kv.Store) *Client {
	t.Helper()
	c, err := New(context.Background(), Options{
		BaseURL:        app.URL,
		Store:          store,
		SessionCookies: []string{"session"},
	})
	require.NoError(t, err)
	return c
}

func TestClientLogout(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)
	store := kv.NewMemory()
	c := newTestClient(t, app, store)

	require.NoError(t, c.SetToken(ctx, "abc"))
	resp, err := c.Get(ctx, "/hello")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "Bearer abc", app.lastAuth.Load())

	cookies, err := c.Jar().Read(ctx)
	require.NoError(t, err)
	assert.Len(t, cookies, 2)

	require.NoError(t, c.Logout(ctx, false))

	state, loc, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, token.Absent, state)
	assert.Equal(t, "/", loc)
	assert.EqualValues(t, 1, app.rootHits.Load())

	cookies, err = c.Jar().Read(ctx)
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.Equal(t, "theme", cookies[0].Name)
}

func TestClientExpiredLogoutLeavesMarker(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)
	store := kv.NewMemory()
	c := newTestClient(t, app, store)

	require.NoError(t, c.SetToken(ctx, "abc"))
	require.NoError(t, c.Logout(ctx, true))

	raw, err := store.Get(ctx, c.Origin()+"/"+token.DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, `{"expired":true}`, string(raw))
}

func TestClientUnauthorizedExpiresSession(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)
	c := newTestClient(t, app, kv.NewMemory())

	require.NoError(t, c.SetToken(ctx, "abc"))
	resp, err := c.Get(ctx, "/hello")
	require.NoError(t, err)
	resp.Body.Close()

	_, err = c.Get(ctx, "/private")
	assert.ErrorIs(t, err, ErrSessionExpired)

	state, loc, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, token.Expired, state)
	assert.Equal(t, "/", loc)

	cookies, err := c.Jar().Read(ctx)
	require.NoError(t, err)
	for _, ck := range cookies {
		assert.NotEqual(t, "session", ck.Name)
	}
}

func TestClientCookiesPersistAcrossInstances(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)
	store := kv.NewMemory()

	c := newTestClient(t, app, store)
	resp, err := c.Get(ctx, "/hello")
	require.NoError(t, err)
	resp.Body.Close()

	again := newTestClient(t, app, store)
	cookies, err := again.Jar().Read(ctx)
	require.NoError(t, err)
	assert.Len(t, cookies, 2)
}

func TestClientNavigationFailureIsReported(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)
	store := kv.NewMemory()
	c := newTestClient(t, app, store)
	require.NoError(t, c.SetToken(ctx, "abc"))
	app.Close()

	err := c.Logout(ctx, false)
	assert.ErrorIs(t, err, terminator.ErrNavigation)
	assert.NotErrorIs(t, err, terminator.ErrStorage)

	state, _, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, token.Absent, state)
}

func TestNewValidation(t *testing.T) {
	ctx := context.Background()
	_, err := New(ctx, Options{BaseURL: "nope", Store: kv.NewMemory()})
	assert.Error(t, err)
	_, err = New(ctx, Options{BaseURL: "http://localhost:3000"})
	assert.Error(t, err)
}
