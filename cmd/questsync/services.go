package main

import (
	"fmt"

	"questsync/internal/config"
	"questsync/internal/engine"
	"questsync/internal/logging"
	"questsync/internal/mirror"
	"questsync/internal/origin"
	"questsync/internal/store"
)

// services bundles everything a command needs to talk to both systems.
type services struct {
	cfg    *config.Config
	origin *origin.Client
	mirror *mirror.Client
	store  store.Store
	runner *engine.Runner
}

// buildServices loads config and wires up both API clients, the state
// store, and the reconciliation engine.
func buildServices() (*services, error) {
	cfg, err := config.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	loc := cfg.Location()

	originClient, err := origin.New(origin.Config{
		BaseURL:  cfg.OriginURL,
		Token:    cfg.OriginToken,
		Location: loc,
	})
	if err != nil {
		return nil, err
	}

	mirrorClient, err := mirror.New(mirror.Config{
		BaseURL: cfg.MirrorURL,
		User:    cfg.MirrorUser,
		Token:   cfg.MirrorToken,
	})
	if err != nil {
		return nil, err
	}

	st, err := openConfiguredStore(cfg)
	if err != nil {
		return nil, err
	}

	eng := engine.New(engine.Config{
		Origin:   originClient,
		Mirror:   mirrorClient,
		Store:    st,
		Location: loc,
	})

	return &services{
		cfg:    cfg,
		origin: originClient,
		mirror: mirrorClient,
		store:  st,
		runner: engine.NewRunner(eng),
	}, nil
}

// Close releases the state store.
func (s *services) Close() {
	if err := s.store.Close(); err != nil {
		logging.WithError(err).Warn("failed to close state store")
	}
}

// openStore opens just the state store, for commands that never touch
// the remote APIs and should not demand credentials.
func openStore() (store.Store, *config.Config, error) {
	cfg, err := config.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	st, err := openConfiguredStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	return st, cfg, nil
}

func openConfiguredStore(cfg *config.Config) (store.Store, error) {
	// An explicit empty state_path in the config file falls back to the
	// XDG default rather than a file in the working directory.
	statePath := cfg.StatePath
	if statePath == "" {
		statePath = config.DefaultStatePath()
	}

	return store.Open(cfg.StateBackend, statePath, cfg.RedisURL)
}
