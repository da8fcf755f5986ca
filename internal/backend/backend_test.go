package backend

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"swa/internal/config"
	"swa/pkg/filestore"
	"swa/pkg/kv"
	"swa/pkg/redis"
	"swa/pkg/sqlite"
)

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cases := []struct {
		driver string
		source string
		check  func(t *testing.T, st kv.Store)
	}{
		{"file", "", func(t *testing.T, st kv.Store) { assert.IsType(t, &filestore.Storage{}, st) }},
		{"", "", func(t *testing.T, st kv.Store) { assert.IsType(t, &filestore.Storage{}, st) }},
		{"memory", "", func(t *testing.T, st kv.Store) { assert.IsType(t, &kv.Memory{}, st) }},
		{"sqlite", "", func(t *testing.T, st kv.Store) { assert.IsType(t, &sqlite.Storage{}, st) }},
		{"redis", mr.Addr(), func(t *testing.T, st kv.Store) { assert.IsType(t, &redis.Storage{}, st) }},
	}

	for _, tc := range cases {
		t.Run(tc.driver, func(t *testing.T) {
			cfg := config.Config{ConfigDir: t.TempDir(), StoreDriver: tc.driver, StoreSource: tc.source}
			st, err := Open(ctx, cfg, zap.NewNop())
			require.NoError(t, err)
			t.Cleanup(func() { _ = st.Close(ctx) })
			tc.check(t, st)

			require.NoError(t, st.Set(ctx, "k", []byte("v")))
			got, err := st.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "v", string(got))
		})
	}
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, config.Config{StoreDriver: "etcd"}, zap.NewNop())
	assert.ErrorContains(t, err, "unknown store driver")

	_, err = Open(ctx, config.Config{StoreDriver: "libsql"}, zap.NewNop())
	assert.Error(t, err)

	_, err = Open(ctx, config.Config{StoreDriver: "r2"}, zap.NewNop())
	assert.Error(t, err)
}
