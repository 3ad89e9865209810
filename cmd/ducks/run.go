package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oiime/logrusbun"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"github.com/getzep/ducks/config"
	"github.com/getzep/ducks/pkg/auth"
	"github.com/getzep/ducks/pkg/models"
	"github.com/getzep/ducks/pkg/observability"
	"github.com/getzep/ducks/pkg/server"
	"github.com/getzep/ducks/pkg/store/sqlstore"
)

const redacted = "********"

// run is the entrypoint for the ducks server
func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if done, err := handleCLIOptions(cfg); done || err != nil {
		return err
	}

	log.Infof("Starting ducks server version %s", config.VersionString)

	ctx := context.Background()

	shutdownTracing, err := observability.Setup(ctx, cfg)
	if err != nil {
		return err
	}

	appState, err := NewAppState(ctx, cfg)
	if err != nil {
		return err
	}

	srv, err := server.Create(appState)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Listening on: %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-signalCh:
		log.Infof("Received %s, shutting down", sig)
	}

	return shutdown(srv, appState, shutdownTracing, cfg.Server.ShutdownTimeout)
}

// shutdown drains in-flight requests, then closes the store and flushes traces.
func shutdown(
	srv *http.Server,
	appState *models.AppState,
	shutdownTracing observability.ShutdownFunc,
	timeout time.Duration,
) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("error shutting down server: %w", err))
	}
	if err := appState.DuckStore.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing DuckStore connection: %w", err))
	}
	if err := shutdownTracing(ctx); err != nil {
		errs = append(errs, fmt.Errorf("error shutting down tracing: %w", err))
	}

	return errors.Join(errs...)
}

// NewAppState connects to the configured store, creates the schema and
// applies migrations.
func NewAppState(ctx context.Context, cfg *config.Config) (*models.AppState, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	if err := sqlstore.CreateSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	log.Info("Using store: ", cfg.Store.Type)

	return &models.AppState{
		DuckStore: sqlstore.NewDuckStoreDAO(db),
		Config:    cfg,
	}, nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("error configuring ducks: %w", err)
	}
	config.SetLogLevel(cfg)
	return cfg, nil
}

func openDB(cfg *config.Config) (*bun.DB, error) {
	db, err := sqlstore.NewConn(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.OTel.Enabled {
		observability.InstrumentDB(db, cfg.Store.Type)
	}
	if cfg.Log.Level == "debug" {
		debugLogging(db)
	}

	return db, nil
}

// handleCLIOptions handles CLI options that don't require the server to run.
// It reports whether the command is complete.
func handleCLIOptions(cfg *config.Config) (bool, error) {
	switch {
	case showVersion:
		fmt.Println(config.VersionString)
		return true, nil
	case generateKey:
		token, err := auth.GenerateJWT(cfg)
		if err != nil {
			return true, err
		}
		fmt.Println(token)
		return true, nil
	case dumpConfig:
		out, err := json.MarshalIndent(redactConfig(*cfg), "", "  ")
		if err != nil {
			return true, err
		}
		fmt.Println(string(out))
		return true, nil
	}
	return false, nil
}

func redactConfig(cfg config.Config) config.Config {
	if cfg.Auth.Secret != "" {
		cfg.Auth.Secret = redacted
	}
	if cfg.Web.MessageSecret != "" {
		cfg.Web.MessageSecret = redacted
	}
	if cfg.Store.Postgres.DSN != "" {
		cfg.Store.Postgres.DSN = redacted
	}
	return cfg
}

func debugLogging(db *bun.DB) {
	db.AddQueryHook(logrusbun.NewQueryHook(logrusbun.QueryHookOptions{
		LogSlow:         time.Second,
		Logger:          log,
		QueryLevel:      logrus.DebugLevel,
		ErrorLevel:      logrus.ErrorLevel,
		SlowLevel:       logrus.WarnLevel,
		MessageTemplate: "{{.Operation}}[{{.Duration}}]: {{.Query}}",
		ErrorTemplate:   "{{.Operation}}[{{.Duration}}]: {{.Query}}: {{.Error}}",
	}))
}
