package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"swa/internal/terminator"
	"swa/pkg/kv"
)

const cookiesKey = "cookies"

// Jar is an http.CookieJar for a single origin whose cookies persist in the
// origin-scoped store. It doubles as the terminator's cookie capability.
type Jar struct {
	mu      sync.Mutex
	store   terminator.Storage
	cookies []*http.Cookie
	now     func() time.Time
}

// NewJar loads previously persisted cookies from store.
func NewJar(ctx context.Context, store terminator.Storage) (*Jar, error) {
	j := &Jar{store: store, now: time.Now}
	data, err := store.Get(ctx, cookiesKey)
	if errors.Is(err, kv.ErrNotFound) {
		return j, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &j.cookies); err != nil {
		// corrupt jar, start empty
		j.cookies = nil
	}
	return j, nil
}

// SetCookies implements http.CookieJar. Cookies with MaxAge < 0 or an
// expiry in the past delete their stored counterpart.
func (j *Jar) SetCookies(_ *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, c := range cookies {
		j.cookies = slices.DeleteFunc(j.cookies, func(old *http.Cookie) bool {
			return old.Name == c.Name
		})
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(j.now())) {
			continue
		}
		stored := &http.Cookie{Name: c.Name, Value: c.Value, Path: c.Path, Expires: c.Expires}
		if c.MaxAge > 0 {
			stored.Expires = j.now().Add(time.Duration(c.MaxAge) * time.Second)
		}
		j.cookies = append(j.cookies, stored)
	}
	_ = j.persist(context.Background())
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(_ *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.live()
}

// Read returns the cookies that would be sent on the next request.
func (j *Jar) Read(_ context.Context) ([]*http.Cookie, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.live(), nil
}

// Clear removes the named cookies, or all of them when names is empty, and
// persists the result.
func (j *Jar) Clear(ctx context.Context, names ...string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(names) == 0 {
		j.cookies = nil
	} else {
		j.cookies = slices.DeleteFunc(j.cookies, func(c *http.Cookie) bool {
			return slices.Contains(names, c.Name)
		})
	}
	return j.persist(ctx)
}

func (j *Jar) live() []*http.Cookie {
	now := j.now()
	out := make([]*http.Cookie, 0, len(j.cookies))
	for _, c := range j.cookies {
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			continue
		}
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

func (j *Jar) persist(ctx context.Context) error {
	if len(j.cookies) == 0 {
		return kv.IgnoreNotFound(j.store.Delete(ctx, cookiesKey))
	}
	data, err := json.Marshal(j.cookies)
	if err != nil {
		return err
	}
	return j.store.Set(ctx, cookiesKey, data)
}
