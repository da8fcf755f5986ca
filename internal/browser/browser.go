//go:build js && wasm

// Package browser binds the session terminator to the page it runs in:
// localStorage, document.cookie and location.replace.
package browser

import (
	"context"
	"fmt"
	"net/http"
	"syscall/js"

	"swa/internal/terminator"
	"swa/pkg/kv"
)

// LocalStorage is the origin-scoped window.localStorage.
type LocalStorage struct {
	v js.Value
}

func NewLocalStorage() *LocalStorage {
	return &LocalStorage{v: js.Global().Get("localStorage")}
}

func (s *LocalStorage) Get(_ context.Context, key string) (value []byte, err error) {
	defer recoverJS(&err)
	item := s.v.Call("getItem", key)
	if item.IsNull() {
		return nil, kv.ErrNotFound
	}
	return []byte(item.String()), nil
}

// Set fails when the quota is exceeded or storage is disabled.
func (s *LocalStorage) Set(_ context.Context, key string, value []byte) (err error) {
	defer recoverJS(&err)
	s.v.Call("setItem", key, string(value))
	return nil
}

func (s *LocalStorage) Delete(_ context.Context, key string) (err error) {
	defer recoverJS(&err)
	s.v.Call("removeItem", key)
	return nil
}

// DocumentCookies is document.cookie of the current page.
type DocumentCookies struct {
	doc js.Value
}

func NewDocumentCookies() *DocumentCookies {
	return &DocumentCookies{doc: js.Global().Get("document")}
}

func (c *DocumentCookies) Read(_ context.Context) (cookies []*http.Cookie, err error) {
	defer recoverJS(&err)
	return parseCookieHeader(c.doc.Get("cookie").String()), nil
}

// Clear expires each named cookie for path=/.
func (c *DocumentCookies) Clear(_ context.Context, names ...string) (err error) {
	defer recoverJS(&err)
	for _, name := range names {
		c.doc.Set("cookie", expireCookie(name))
	}
	return nil
}

// Location replaces the current history entry.
type Location struct {
	v js.Value
}

func NewLocation() *Location {
	return &Location{v: js.Global().Get("location")}
}

func (l *Location) NavigateTo(_ context.Context, path string) (err error) {
	defer recoverJS(&err)
	l.v.Call("replace", path)
	return nil
}

// New binds a Terminator to the current page.
func New(opts ...terminator.Option) *terminator.Terminator {
	return terminator.New(NewLocalStorage(), NewDocumentCookies(), NewLocation(), opts...)
}

// recoverJS turns a thrown JavaScript exception into err.
func recoverJS(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if jsErr, ok := r.(js.Error); ok {
		*err = jsErr
		return
	}
	*err = fmt.Errorf("browser: %v", r)
}
