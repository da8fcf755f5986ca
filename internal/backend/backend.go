// Package backend opens the key-value store selected by configuration.
package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"swa/internal/config"
	"swa/pkg/filestore"
	"swa/pkg/kv"
	"swa/pkg/r2"
	"swa/pkg/redis"
	"swa/pkg/sqlite"
)

// Open initializes the store named by cfg.StoreDriver. The caller owns the
// returned store and must Close it.
func Open(ctx context.Context, cfg config.Config, log *zap.Logger) (kv.Store, error) {
	var (
		store kv.Store
		param any
	)
	if cfg.ConfigDir != "" {
		if err := os.MkdirAll(cfg.ConfigDir, 0o700); err != nil {
			return nil, fmt.Errorf("backend: create config dir: %w", err)
		}
	}

	switch cfg.StoreDriver {
	case "file", "":
		store = &filestore.Storage{}
		param = filestore.Config{Dir: sourceOr(cfg.StoreSource, filepath.Join(cfg.ConfigDir, "store"))}
	case "memory":
		store = kv.NewMemory()
	case "sqlite":
		store = &sqlite.Storage{}
		param = sqlite.Config{
			Source: sourceOr(cfg.StoreSource, "file:"+filepath.Join(cfg.ConfigDir, "swa.db")+"?cache=shared"),
		}
	case "libsql":
		if cfg.StoreSource == "" {
			return nil, fmt.Errorf("backend: SWA_STORE_SOURCE is required for libsql")
		}
		store = &sqlite.Storage{}
		param = sqlite.Config{Driver: "libsql", Source: cfg.StoreSource}
	case "redis":
		store = &redis.Storage{}
		param = redis.Config{
			Addr:     sourceOr(cfg.StoreSource, cfg.Redis.Addr),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}
	case "r2":
		store = &r2.Storage{}
		param = r2.Config{
			AccountID:        cfg.R2.AccountID,
			AccessKey:        cfg.R2.AccessKey,
			SecretAccessKey:  cfg.R2.SecretAccessKey,
			Bucket:           cfg.R2.Bucket,
			EndpointOverride: cfg.R2.Endpoint,
			Prefix:           cfg.R2.Prefix,
		}
	default:
		return nil, fmt.Errorf("backend: unknown store driver %q", cfg.StoreDriver)
	}

	if err := store.Init(ctx, param); err != nil {
		return nil, err
	}
	log.Debug("store opened", zap.String("driver", cfg.StoreDriver))
	return store, nil
}

func sourceOr(source, fallback string) string {
	if source != "" {
		return source
	}
	return fallback
}
