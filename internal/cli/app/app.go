package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kantorkita/backoffice/pkg/backofficesdk"
	"github.com/kantorkita/backoffice/pkg/slogx"
	"github.com/kantorkita/backoffice/pkg/statestore"
)

// Application wires the SDK client, state store, and logging for the CLI.
type Application struct {
	cfg    Config
	logger *slog.Logger

	store  statestore.Store
	sealer *statestore.Sealer
	client *backofficesdk.Client
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			App:    "backoffice",
			Env:    cfg.Env,
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
		}),
	}

	store, err := statestore.OpenSQLite(cfg.StateFile)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	app.store = store

	sealer, err := statestore.NewSealer(cfg.StateKeyFile)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("initialize sealer: %w", err)
	}
	app.sealer = sealer

	baseURL, err := app.resolveBaseURL(context.Background())
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	opts := []backofficesdk.Option{
		backofficesdk.WithLogger(app.logger),
		backofficesdk.WithStore(app.store, app.sealer),
	}
	if cfg.APIKey != "" {
		opts = append(opts, backofficesdk.WithAPIKey(cfg.APIKey))
	}
	if cfg.RequestRate > 0 {
		opts = append(opts, backofficesdk.WithRateLimit(cfg.RequestRate, cfg.RequestBurst))
	}
	app.client = backofficesdk.NewClient(baseURL, opts...)

	if id, err := statestore.InstallationID(context.Background(), app.store); err == nil {
		app.logger = app.logger.With("installation_id", id)
	}

	return app, nil
}

// resolveBaseURL picks the API base URL: explicit environment override first,
// then the URL persisted by a previous login, then the development default.
// An explicit override is persisted for later runs.
func (app *Application) resolveBaseURL(ctx context.Context) (string, error) {
	if app.cfg.APIBaseURL != "" {
		if err := app.store.Set(ctx, statestore.KeyAPIBaseURL, app.cfg.APIBaseURL); err != nil {
			return "", fmt.Errorf("persist api base url: %w", err)
		}
		return app.cfg.APIBaseURL, nil
	}

	url, err := app.store.Get(ctx, statestore.KeyAPIBaseURL)
	if err == nil {
		return url, nil
	}
	if !errors.Is(err, statestore.ErrNotFound) {
		return "", fmt.Errorf("read persisted api base url: %w", err)
	}
	return DefaultAPIBaseURL, nil
}

// session restores the persisted session, failing with a hint to log in when
// none is usable.
func (app *Application) session(ctx context.Context) (*backofficesdk.Session, error) {
	session, err := app.client.Restore(ctx)
	if err != nil {
		if errors.Is(err, backofficesdk.ErrNotAuthenticated) {
			return nil, errors.New("not logged in, run `backoffice login` first")
		}
		return nil, err
	}
	return session, nil
}

// Close releases the state store.
func (app *Application) Close() error {
	return app.store.Close()
}
