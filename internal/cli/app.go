package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/krunch/internal/config"
	"github.com/roach88/krunch/internal/derive"
	"github.com/roach88/krunch/internal/prefs"
	"github.com/roach88/krunch/internal/service"
	"github.com/roach88/krunch/internal/worker"
)

// app is the per-invocation wiring of config, store and service.
type app struct {
	cfg    *config.Config
	store  *prefs.SQLiteStore
	svc    *service.Service
	logger *slog.Logger
	stop   func() error
}

// openApp loads config, opens the store and starts the worker pool. Close
// must be called when the command is done.
func (o *RootOptions) openApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.Database != "" {
		cfg.Database = o.Database
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Log.Format, o.Verbose)

	if err := os.MkdirAll(filepath.Dir(cfg.Database), 0o700); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create database directory", err)
	}
	store, err := prefs.OpenSQLite(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	logger.Debug("opened preference store", "path", cfg.Database)

	engine := derive.New(derive.DefaultProvider())
	poolOpts := []worker.Option{worker.WithLogger(logger)}
	if cfg.Workers > 0 {
		poolOpts = append(poolOpts, worker.WithWorkers(cfg.Workers))
	}
	svc := service.New(service.Options{
		Store:             store,
		Engine:            engine,
		Pool:              worker.NewPool(engine, poolOpts...),
		DefaultIterations: cfg.DefaultIterations,
		Policy:            cfg.Policy(),
		Logger:            logger,
	})

	return &app{
		cfg:    cfg,
		store:  store,
		svc:    svc,
		logger: logger,
		stop:   svc.Start(ctx),
	}, nil
}

func (a *app) Close() error {
	stopErr := a.stop()
	if err := a.store.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return stopErr
}

func (o *RootOptions) loadConfig() (*config.Config, error) {
	if o.ConfigPath != "" {
		cfg, _, err := config.LoadFromPath(o.ConfigPath)
		return cfg, err
	}
	cfg, _, err := config.Load()
	return cfg, err
}
