// Package cli wires configuration, logging, storage and the HTTP client for
// the swa commands.
package cli

import (
	"context"

	"go.uber.org/zap"

	"swa/internal/backend"
	"swa/internal/client"
	"swa/internal/config"
	"swa/internal/logging"
	"swa/pkg/kv"
)

// Env is everything a command needs.
type Env struct {
	Config config.Config
	Log    *zap.Logger
	Store  kv.Store
	Client *client.Client
}

// Open loads the configuration and opens the store and client.
func Open(ctx context.Context) (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logging.New(cfg.Debug)

	store, err := backend.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	c, err := client.New(ctx, client.Options{
		BaseURL:        cfg.BaseURL,
		Store:          store,
		TokenKey:       cfg.TokenKey,
		SessionCookies: cfg.SessionCookies,
		Logger:         log,
	})
	if err != nil {
		store.Close(ctx)
		return nil, err
	}

	return &Env{Config: cfg, Log: log, Store: store, Client: c}, nil
}

// Close releases the store and flushes the logger.
func (e *Env) Close(ctx context.Context) {
	if err := e.Store.Close(ctx); err != nil {
		e.Log.Warn("close store", zap.Error(err))
	}
	_ = e.Log.Sync()
}
