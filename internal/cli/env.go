package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nainya/ndstore/internal/config"
	"github.com/nainya/ndstore/internal/logger"
	"github.com/nainya/ndstore/pkg/collection"
	"github.com/nainya/ndstore/pkg/storage"
)

// env is the configuration, logger and storage shared by one command run
type env struct {
	cfg   config.Config
	log   *logger.Logger
	store storage.Store
}

func setup(ctx context.Context, cmd *cobra.Command, opts *RootOptions) (*env, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	logCfg := logger.DefaultConfig()
	logCfg.Output = cmd.ErrOrStderr()
	logCfg.Level = cfg.Log.Level
	logCfg.WithCaller = cfg.Log.Caller
	if cfg.Log.Pretty != nil {
		logCfg.Pretty = *cfg.Log.Pretty
	}
	if opts.LogLevel != "" {
		logCfg.Level = opts.LogLevel
	}
	log := logger.NewLogger(logCfg).CommandLogger(cmd.Name())

	store, err := cfg.Storage.OpenStorage(ctx, log.StorageLogger(cfg.Storage.Backend).GetZerolog())
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, store: store}, nil
}

func (e *env) Close() {
	if err := storage.Close(e.store); err != nil {
		e.log.GetZerolog().Warn().Err(err).Msg("failed to close storage")
	}
}

// open builds a collection from the configuration. When id is set the
// stored collection is loaded; a missing id is not an error unless
// required.
func (e *env) open(ctx context.Context, id string, required bool, observer collection.Observer) (*collection.Collection, error) {
	opts, err := e.cfg.Collection.Options(e.log.Component("collection").GetZerolog())
	if err != nil {
		return nil, err
	}
	opts.Storage = e.store
	opts.Observer = observer
	c := collection.New(opts)

	if id == "" {
		return c, nil
	}
	if err := c.Load(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) && !required {
			e.log.GetZerolog().Debug().Str("id", id).Msg("starting empty collection")
			return c, nil
		}
		return nil, fmt.Errorf("failed to load %q: %w", id, err)
	}
	return c, nil
}
