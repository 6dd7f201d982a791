// Package cli implements the expenses command line: record keeping
// commands that work directly against the configured store, plus serve.
package cli

import (
	"context"
	"fmt"
	"io"

	"expensetracker/internal/backend"
	"expensetracker/internal/config"
	applog "expensetracker/internal/log"
	"expensetracker/internal/services"
)

// app is everything a command needs, opened once per invocation.
type app struct {
	cfg     *config.Config
	logger  *applog.Logger
	backend *backend.BackendResult
	store   *services.ExpenseStore
	prefs   *services.Preferences
}

// openApp loads and validates configuration, then opens the configured
// backend. Logs go to logOut so stdout stays clean for command output.
func openApp(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: applog.ComponentCLI,
		Output:    logOut,
	})
	applog.SetDefault(logger)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.DataBackend, err)
	}

	var opts []services.Option
	if result.Notifier != nil {
		opts = append(opts, services.WithNotifier(result.Notifier))
	}
	return &app{
		cfg:     cfg,
		logger:  logger,
		backend: result,
		store:   services.NewExpenseStore(result.Store, opts...),
		prefs:   services.NewPreferences(result.Store),
	}, nil
}

func (a *app) Close() error {
	if a == nil || a.backend == nil || a.backend.Cleanup == nil {
		return nil
	}
	return a.backend.Cleanup()
}

// session lazily opens the app on first use and closes it at the end of
// the invocation.
type session struct {
	app    *app
	logOut io.Writer
}

func (s *session) open(ctx context.Context) (*app, error) {
	if s.app != nil {
		return s.app, nil
	}
	a, err := openApp(ctx, s.logOut)
	if err != nil {
		return nil, err
	}
	s.app = a
	return a, nil
}

func (s *session) close() error {
	err := s.app.Close()
	s.app = nil
	return err
}
