// Package client is the command-line host for session termination: it keeps
// the origin-scoped session record and cookie jar on disk (or any kv store)
// and talks to the application over HTTP.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"swa/internal/terminator"
	"swa/internal/token"
	"swa/pkg/kv"
)

const locationKey = "location"

// Error is a client-side failure reported to the user.
type Error string

// implement the error interface
func (e Error) Error() string {
	return string(e)
}

const (
	ErrSessionExpired Error = "session expired, please log in again"
	ErrNotLoggedIn    Error = "not logged in"
)

// Options configures a Client.
type Options struct {
	BaseURL string
	// Store is the persistent store; it is scoped to the origin of BaseURL.
	Store          kv.Store
	TokenKey       string
	SessionCookies []string
	Logger         *zap.Logger
	// Transport defaults to one honoring HTTP_PROXY/HTTPS_PROXY/NO_PROXY.
	Transport http.RoundTripper
}

// Client is bound to a single origin.
type Client struct {
	base    *url.URL
	store   *kv.Scoped
	jar     *Jar
	http    *http.Client
	key     string
	cookies []string
	log     *zap.Logger
}

// New builds a Client for opts.BaseURL.
func New(ctx context.Context, opts Options) (*Client, error) {
	base, err := url.ParseRequestURI(strings.TrimSuffix(opts.BaseURL, "/"))
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("client: invalid base URL %q", opts.BaseURL)
	}
	if opts.Store == nil {
		return nil, errors.New("client: store is required")
	}
	if opts.TokenKey == "" {
		opts.TokenKey = token.DefaultKey
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Transport == nil {
		opts.Transport = &http.Transport{Proxy: http.ProxyFromEnvironment}
	}

	scoped := kv.Scope(opts.Store, base.Host)
	jar, err := NewJar(ctx, scoped)
	if err != nil {
		return nil, fmt.Errorf("client: load cookies: %w", err)
	}

	return &Client{
		base:  base,
		store: scoped,
		jar:   jar,
		http: &http.Client{
			Transport: opts.Transport,
			Jar:       jar,
		},
		key:     opts.TokenKey,
		cookies: opts.SessionCookies,
		log:     opts.Logger.With(zap.String("origin", base.Host)),
	}, nil
}

// Origin returns the host the client is scoped to.
func (c *Client) Origin() string {
	return c.base.Host
}

// Jar exposes the persisted cookie jar.
func (c *Client) Jar() *Jar {
	return c.jar
}

// Terminator binds the session terminator to this client's store, jar and
// navigator.
func (c *Client) Terminator(opts ...terminator.Option) *terminator.Terminator {
	base := []terminator.Option{
		terminator.WithTokenKey(c.key),
		terminator.WithCookieNames(c.cookies...),
		terminator.WithLogger(c.log),
	}
	return terminator.New(c.store, c.jar, &navigator{c: c}, append(base, opts...)...)
}

// Logout ends the session. With expired set, the expired marker is left
// behind instead of deleting the record.
func (c *Client) Logout(ctx context.Context, expired bool) error {
	return c.Terminator().Terminate(ctx, expired)
}

// Status reports the local session record state and current location.
func (c *Client) Status(ctx context.Context) (token.State, string, error) {
	state, _, err := token.Inspect(ctx, c.store, c.key)
	if err != nil {
		return token.Absent, "", err
	}
	loc, err := c.store.Get(ctx, locationKey)
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return state, "", err
	}
	return state, string(loc), nil
}

// SetToken stores a live credential obtained from the identity provider.
func (c *Client) SetToken(ctx context.Context, credential string) error {
	value, err := token.NewLive(credential)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, c.key, value)
}

// Do sends req with the stored credential as bearer token. A 401 response
// terminates the session as expired and returns ErrSessionExpired.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	state, rec, err := token.Inspect(ctx, c.store, c.key)
	if err != nil {
		return nil, err
	}
	if state == token.Live {
		req.Header.Set("Authorization", "Bearer "+rec.Token)
	}

	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	c.log.Info("unauthorized response, expiring session", zap.String("path", req.URL.Path))
	if err := c.Logout(ctx, true); err != nil {
		return nil, errors.Join(ErrSessionExpired, err)
	}
	return nil, ErrSessionExpired
}

// Get fetches path relative to the base URL through Do.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(path), nil)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

func (c *Client) resolve(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.base.String() + path
}
