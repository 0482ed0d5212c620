// Package commands implements the reportql subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/reportql/internal/config"
	"github.com/leapstack-labs/reportql/internal/exec"
	"github.com/leapstack-labs/reportql/internal/runner"
	"github.com/leapstack-labs/reportql/internal/schema"
	"github.com/leapstack-labs/reportql/internal/state"
	"github.com/leapstack-labs/reportql/pkg/adapter"

	// Register the built-in adapters.
	_ "github.com/leapstack-labs/reportql/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/reportql/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/reportql/pkg/adapters/sqlite"
)

// App bundles the wired collaborators a command needs: configuration, the
// execution adapter, the introspected model catalog, the state store, and
// the execution service.
type App struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	DB       adapter.Adapter
	Catalog  *schema.Catalog
	Store    *state.Store
	Service  *runner.Service
	Executor *exec.Executor
}

// openApp loads configuration, connects the execution database, introspects
// the configured models, and opens the state store.
func openApp(cmd *cobra.Command) (*App, error) {
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		if root := config.FindProjectRoot(cwd); root != "" {
			dir = root
		} else {
			dir = cwd
		}
	}

	cfg, err := config.Load(dir, cmd.Root().PersistentFlags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := newLogger(cmd, cfg)

	db, err := adapter.New(cfg.Execution.AdapterConfig(), logger)
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := db.Connect(ctx, cfg.Execution.AdapterConfig()); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Execution.Type, err)
	}

	models, err := schema.NewIntrospector(db, logger).Models(ctx, cfg.Models)
	if err != nil {
		db.Close()
		return nil, err
	}
	catalog := schema.NewCatalog(models)

	store := state.NewStore()
	if err := store.Open(cfg.State.Path); err != nil {
		db.Close()
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		db.Close()
		return nil, err
	}

	service := runner.NewService(db, catalog, store, logger)
	executor := exec.NewExecutor(service, logger, exec.Options{
		PollInterval: pollInterval(cfg),
		MaxPolls:     cfg.Polling.MaxPolls,
	})

	return &App{
		Cfg:      cfg,
		Logger:   logger,
		DB:       db,
		Catalog:  catalog,
		Store:    store,
		Service:  service,
		Executor: executor,
	}, nil
}

// Close releases the app's resources, draining background jobs first.
func (a *App) Close() {
	a.Service.Wait()
	a.Store.Close()
	a.DB.Close()
}

func pollInterval(cfg *config.Config) time.Duration {
	if cfg.Polling.IntervalMS <= 0 {
		return 0
	}
	return time.Duration(cfg.Polling.IntervalMS) * time.Millisecond
}

func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
