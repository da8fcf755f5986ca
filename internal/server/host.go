package server

import (
	"context"
	"net/http"
	"slices"
	"time"
)

// responseCookies reads the request's cookies and clears cookies through
// Set-Cookie on the response. The device cookie is never reported, so a
// blunt clear cannot detach the browser from its stored record.
type responseCookies struct {
	w      http.ResponseWriter
	r      *http.Request
	secure bool
}

func (c *responseCookies) Read(_ context.Context) ([]*http.Cookie, error) {
	return slices.DeleteFunc(c.r.Cookies(), func(ck *http.Cookie) bool {
		return ck.Name == deviceCookie
	}), nil
}

func (c *responseCookies) Clear(_ context.Context, names ...string) error {
	for _, name := range names {
		http.SetCookie(c.w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			Secure:   c.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return nil
}

// redirectNavigator answers with 303 See Other: the browser replaces the
// current page with a fresh GET of path.
type redirectNavigator struct {
	w http.ResponseWriter
	r *http.Request
}

func (n *redirectNavigator) NavigateTo(_ context.Context, path string) error {
	http.Redirect(n.w, n.r, path, http.StatusSeeOther)
	return nil
}
