// Package terminator ends a client session: it clears or marks the locally
// cached session token, clears the session cookies and navigates to the
// application root. The host environment (browser, CLI, HTTP response) is
// reached only through the Storage, Cookies and Navigator capabilities.
package terminator

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"swa/internal/token"
	"swa/pkg/kv"
)

// RootPath is where every termination ends up.
const RootPath = "/"

// Errors wrapped by the error returned from Terminate, one per failed step.
var (
	ErrStorage    = errors.New("terminator: session record not updated")
	ErrCookies    = errors.New("terminator: session cookies not cleared")
	ErrNavigation = errors.New("terminator: navigation failed")
)

// Storage is the persistent, origin-scoped key-value store holding the
// session-token record.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete may return kv.ErrNotFound; an absent key counts as deleted.
	Delete(ctx context.Context, key string) error
}

// Cookies is the cookie jar of the current document.
type Cookies interface {
	Read(ctx context.Context) ([]*http.Cookie, error)
	// Clear removes the named cookies for the current path.
	Clear(ctx context.Context, names ...string) error
}

// Navigator performs a full, replace-style navigation.
type Navigator interface {
	NavigateTo(ctx context.Context, path string) error
}

// Reason labels why a session was terminated.
type Reason string

const (
	ReasonLogout  Reason = "logout"
	ReasonExpired Reason = "expired"
)

// Outcome is handed to the observer hook after every termination.
type Outcome struct {
	Reason  Reason
	Cleared []string
	Err     error
}

// Terminator is stateless between calls; build one per host binding.
type Terminator struct {
	storage Storage
	cookies Cookies
	nav     Navigator

	key         string
	cookieNames []string
	root        string
	log         *zap.Logger
	hook        func(context.Context, Outcome)
}

// Option configures a Terminator.
type Option func(*Terminator)

// WithTokenKey overrides the session-token key.
func WithTokenKey(key string) Option {
	return func(t *Terminator) {
		if key != "" {
			t.key = key
		}
	}
}

// WithCookieNames names the cookies to clear. Without it every cookie the
// Cookies capability can read is cleared.
func WithCookieNames(names ...string) Option {
	return func(t *Terminator) {
		t.cookieNames = append([]string(nil), names...)
	}
}

// WithLogger sets the logger used to report non-fatal faults.
func WithLogger(log *zap.Logger) Option {
	return func(t *Terminator) {
		if log != nil {
			t.log = log
		}
	}
}

// WithHook registers a function called with the outcome of every
// termination, just before navigation.
func WithHook(fn func(context.Context, Outcome)) Option {
	return func(t *Terminator) {
		t.hook = fn
	}
}

// New binds a Terminator to the host capabilities.
func New(storage Storage, cookies Cookies, nav Navigator, opts ...Option) *Terminator {
	t := &Terminator{
		storage: storage,
		cookies: cookies,
		nav:     nav,
		key:     token.DefaultKey,
		root:    RootPath,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Logout ends the session voluntarily.
func (t *Terminator) Logout(ctx context.Context) error {
	return t.Terminate(ctx, false)
}

// Expire ends the session involuntarily, leaving the expired marker behind.
func (t *Terminator) Expire(ctx context.Context) error {
	return t.Terminate(ctx, true)
}

// Terminate runs, in order: mark or delete the record, clear the session
// cookies, navigate to the root. A failing step does not stop the later
// ones; navigation is always attempted last. The returned error joins one
// wrapped error per failed step and is nil when all of them succeeded.
func (t *Terminator) Terminate(ctx context.Context, expired bool) error {
	reason := ReasonLogout
	if expired {
		reason = ReasonExpired
	}
	log := t.log.With(zap.String("reason", string(reason)), zap.String("key", t.key))

	var errs []error

	if err := t.updateRecord(ctx, expired); err != nil {
		log.Warn("session record not updated", zap.Error(err))
		errs = append(errs, fmt.Errorf("%w: %w", ErrStorage, err))
	}

	cleared, err := t.clearCookies(ctx)
	if err != nil {
		log.Warn("session cookies not cleared", zap.Error(err))
		errs = append(errs, fmt.Errorf("%w: %w", ErrCookies, err))
	}

	if t.hook != nil {
		t.hook(ctx, Outcome{Reason: reason, Cleared: cleared, Err: errors.Join(errs...)})
	}

	if err := t.nav.NavigateTo(ctx, t.root); err != nil {
		log.Error("navigation failed", zap.String("path", t.root), zap.Error(err))
		errs = append(errs, fmt.Errorf("%w: %w", ErrNavigation, err))
	}

	if len(errs) == 0 {
		log.Debug("session terminated", zap.Strings("cookies", cleared))
	}
	return errors.Join(errs...)
}

func (t *Terminator) updateRecord(ctx context.Context, expired bool) error {
	if expired {
		return t.storage.Set(ctx, t.key, token.ExpiredMarker())
	}
	return kv.IgnoreNotFound(t.storage.Delete(ctx, t.key))
}

func (t *Terminator) clearCookies(ctx context.Context) ([]string, error) {
	names := t.cookieNames
	if len(names) == 0 {
		jar, err := t.cookies.Read(ctx)
		if err != nil {
			return nil, err
		}
		for _, c := range jar {
			names = append(names, c.Name)
		}
	}
	if len(names) == 0 {
		return nil, nil
	}
	if err := t.cookies.Clear(ctx, names...); err != nil {
		return nil, err
	}
	return names, nil
}
