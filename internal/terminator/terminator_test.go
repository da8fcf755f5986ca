package terminator_test

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"swa/internal/terminator"
	"swa/internal/token"
	"swa/pkg/kv"
)

// fakeJar mimics a document cookie jar.
type fakeJar struct {
	cookies  []*http.Cookie
	readErr  error
	clearErr error
	calls    *[]string
}

func (j *fakeJar) Read(context.Context) ([]*http.Cookie, error) {
	if j.readErr != nil {
		return nil, j.readErr
	}
	return slices.Clone(j.cookies), nil
}

func (j *fakeJar) Clear(_ context.Context, names ...string) error {
	if j.calls != nil {
		*j.calls = append(*j.calls, "cookies")
	}
	if j.clearErr != nil {
		return j.clearErr
	}
	j.cookies = slices.DeleteFunc(j.cookies, func(c *http.Cookie) bool {
		return slices.Contains(names, c.Name)
	})
	return nil
}

type fakeNav struct {
	visits []string
	err    error
	calls  *[]string
}

func (n *fakeNav) NavigateTo(_ context.Context, path string) error {
	if n.calls != nil {
		*n.calls = append(*n.calls, "navigate")
	}
	n.visits = append(n.visits, path)
	return n.err
}

// failingStore fails every write.
type failingStore struct {
	*kv.Memory
	calls *[]string
}

var errQuota = errors.New("quota exceeded")

func (s failingStore) Set(context.Context, string, []byte) error {
	*s.calls = append(*s.calls, "storage")
	return errQuota
}

func (s failingStore) Delete(context.Context, string) error {
	*s.calls = append(*s.calls, "storage")
	return errQuota
}

func sessionCookies() []*http.Cookie {
	return []*http.Cookie{
		{Name: "session", Value: "s1"},
		{Name: "theme", Value: "dark"},
	}
}

func seed(t *testing.T, store *kv.Memory, value []byte) {
	t.Helper()
	if value == nil {
		return
	}
	require.NoError(t, store.Set(context.Background(), token.DefaultKey, value))
}

func liveRecord(t *testing.T) []byte {
	t.Helper()
	b, err := token.NewLive("2b8e6a0c-6f1e-4d55-9b7e-3d4f0a1c9e21")
	require.NoError(t, err)
	return b
}

func TestLogoutClearsRecord(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	seed(t, store, liveRecord(t))
	jar := &fakeJar{cookies: sessionCookies()}
	nav := &fakeNav{}

	err := terminator.New(store, jar, nav).Logout(ctx)
	require.NoError(t, err)

	_, err = store.Get(ctx, token.DefaultKey)
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestExpireMarksRecordFromAnyPriorState(t *testing.T) {
	priors := map[string][]byte{
		"absent":  nil,
		"live":    liveRecord(t),
		"expired": token.ExpiredMarker(),
		"garbage": []byte("%%%"),
	}
	for name, prior := range priors {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := kv.NewMemory()
			seed(t, store, prior)

			err := terminator.New(store, &fakeJar{}, &fakeNav{}).Expire(ctx)
			require.NoError(t, err)

			got, err := store.Get(ctx, token.DefaultKey)
			require.NoError(t, err)
			assert.Equal(t, `{"expired":true}`, string(got))
		})
	}
}

func TestOutcomeDependsOnlyOnArgument(t *testing.T) {
	priors := [][]byte{nil, liveRecord(t), token.ExpiredMarker()}
	for _, expired := range []bool{false, true} {
		for _, prior := range priors {
			ctx := context.Background()
			store := kv.NewMemory()
			seed(t, store, prior)

			require.NoError(t, terminator.New(store, &fakeJar{}, &fakeNav{}).Terminate(ctx, expired))

			state, _, err := token.Inspect(ctx, store, token.DefaultKey)
			require.NoError(t, err)
			if expired {
				assert.Equal(t, token.Expired, state)
			} else {
				assert.Equal(t, token.Absent, state)
			}
		}
	}
}

func TestCookiesAlwaysCleared(t *testing.T) {
	for _, expired := range []bool{false, true} {
		jar := &fakeJar{cookies: sessionCookies()}
		err := terminator.New(kv.NewMemory(), jar, &fakeNav{}).Terminate(context.Background(), expired)
		require.NoError(t, err)
		assert.Empty(t, jar.cookies, "expired=%v", expired)
	}
}

func TestExplicitCookieTargets(t *testing.T) {
	jar := &fakeJar{cookies: sessionCookies()}
	var got terminator.Outcome
	term := terminator.New(kv.NewMemory(), jar, &fakeNav{},
		terminator.WithCookieNames("session"),
		terminator.WithHook(func(_ context.Context, o terminator.Outcome) { got = o }),
	)

	require.NoError(t, term.Logout(context.Background()))
	require.Len(t, jar.cookies, 1)
	assert.Equal(t, "theme", jar.cookies[0].Name)
	assert.Equal(t, []string{"session"}, got.Cleared)
	assert.Equal(t, terminator.ReasonLogout, got.Reason)
}

func TestNavigatesToRootLast(t *testing.T) {
	for _, expired := range []bool{false, true} {
		var calls []string
		store := kv.NewMemory()
		jar := &fakeJar{cookies: sessionCookies(), calls: &calls}
		nav := &fakeNav{calls: &calls}

		require.NoError(t, terminator.New(store, jar, nav).Terminate(context.Background(), expired))
		assert.Equal(t, []string{"/"}, nav.visits)
		assert.Equal(t, []string{"cookies", "navigate"}, calls)
	}
}

func TestIdempotent(t *testing.T) {
	for _, expired := range []bool{false, true} {
		ctx := context.Background()
		store := kv.NewMemory()
		seed(t, store, liveRecord(t))
		jar := &fakeJar{cookies: sessionCookies()}
		term := terminator.New(store, jar, &fakeNav{})

		require.NoError(t, term.Terminate(ctx, expired))
		first, _ := store.Keys(ctx, "")
		firstVal, _ := store.Get(ctx, token.DefaultKey)

		require.NoError(t, term.Terminate(ctx, expired))
		second, _ := store.Keys(ctx, "")
		secondVal, _ := store.Get(ctx, token.DefaultKey)

		assert.Equal(t, first, second)
		assert.Equal(t, firstVal, secondVal)
		assert.Empty(t, jar.cookies)
	}
}

func TestStorageFailureStillClearsAndNavigates(t *testing.T) {
	for _, expired := range []bool{false, true} {
		var calls []string
		core, logs := observer.New(zap.WarnLevel)
		store := failingStore{Memory: kv.NewMemory(), calls: &calls}
		jar := &fakeJar{cookies: sessionCookies(), calls: &calls}
		nav := &fakeNav{calls: &calls}
		var outcome terminator.Outcome

		err := terminator.New(store, jar, nav,
			terminator.WithLogger(zap.New(core)),
			terminator.WithHook(func(_ context.Context, o terminator.Outcome) { outcome = o }),
		).Terminate(context.Background(), expired)

		require.Error(t, err)
		assert.ErrorIs(t, err, terminator.ErrStorage)
		assert.ErrorIs(t, err, errQuota)
		assert.NotErrorIs(t, err, terminator.ErrNavigation)
		assert.Equal(t, []string{"storage", "cookies", "navigate"}, calls)
		assert.Empty(t, jar.cookies)
		assert.Equal(t, []string{"/"}, nav.visits)
		assert.ErrorIs(t, outcome.Err, terminator.ErrStorage)
		assert.Equal(t, 1, logs.FilterMessage("session record not updated").Len())
	}
}

func TestCookieFailureStillNavigates(t *testing.T) {
	nav := &fakeNav{}
	jar := &fakeJar{readErr: errors.New("cookies disabled")}

	err := terminator.New(kv.NewMemory(), jar, nav).Logout(context.Background())
	assert.ErrorIs(t, err, terminator.ErrCookies)
	assert.Equal(t, []string{"/"}, nav.visits)
}

func TestNavigationFailureIsReported(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	seed(t, store, liveRecord(t))
	nav := &fakeNav{err: errors.New("sandboxed")}

	err := terminator.New(store, &fakeJar{}, nav).Logout(ctx)
	assert.ErrorIs(t, err, terminator.ErrNavigation)
	assert.NotErrorIs(t, err, terminator.ErrStorage)

	_, err = store.Get(ctx, token.DefaultKey)
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestCustomTokenKey(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	require.NoError(t, terminator.New(store, &fakeJar{}, &fakeNav{}, terminator.WithTokenKey("auth")).Expire(ctx))

	got, err := store.Get(ctx, "auth")
	require.NoError(t, err)
	assert.Equal(t, token.ExpiredMarker(), got)
	_, err = store.Get(ctx, token.DefaultKey)
	assert.ErrorIs(t, err, kv.ErrNotFound)
}
