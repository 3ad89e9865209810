package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/getzep/ducks/config"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const minPostgresVersion = "12.0"

// NewConn opens the store configured in cfg.Store.Type.
func NewConn(cfg *config.Config) (*bun.DB, error) {
	switch cfg.Store.Type {
	case config.StoreTypePostgres:
		if cfg.Store.Postgres.DSN == "" {
			return nil, fmt.Errorf("store.postgres.dsn must be set")
		}
		return NewPostgresConn(cfg.Store.Postgres.DSN)
	case config.StoreTypeSQLite:
		if cfg.Store.SQLite.Path == "" {
			return nil, fmt.Errorf("store.sqlite.path must be set")
		}
		return NewSQLiteConn(cfg.Store.SQLite.Path)
	default:
		return nil, fmt.Errorf("store.type (%s) is not supported", cfg.Store.Type)
	}
}

// NewPostgresConn creates a new bun.DB connection to a postgres database using the provided DSN.
// The connection is configured to pool connections based on the number of PROCs available.
func NewPostgresConn(dsn string) (*bun.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	maxOpenConns := 4 * runtime.GOMAXPROCS(0)

	sqldb := sql.OpenDB(
		pgdriver.NewConnector(
			pgdriver.WithDSN(dsn),
		),
	)
	sqldb.SetMaxOpenConns(maxOpenConns)
	sqldb.SetMaxIdleConns(maxOpenConns)

	db := bun.NewDB(sqldb, pgdialect.New())

	if err := ping(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := checkPostgresVersion(ctx, db); err != nil {
		log.Warnf("unable to check postgres version: %v", err)
	}

	return db, nil
}

// NewSQLiteConn opens an embedded SQLite database at path. Foreign keys are
// enforced and the pool is limited to a single connection, which serializes
// writers.
func NewSQLiteConn(path string) (*bun.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sqldb, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)
	sqldb.SetConnMaxLifetime(0)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if err := ping(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	return db, nil
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// ping retries until the database answers, so the server can start alongside
// a database container that is still booting.
func ping(ctx context.Context, db *bun.DB) error {
	retryPolicy := retrypolicy.Builder[any]().
		WithBackoff(200*time.Millisecond, 5*time.Second).
		WithMaxRetries(6).
		Build()

	_, err := failsafe.Get(func() (any, error) {
		return nil, db.PingContext(ctx)
	}, retryPolicy)

	return err
}

// checkPostgresVersion warns when the server is older than minPostgresVersion.
func checkPostgresVersion(ctx context.Context, db *bun.DB) error {
	requiredVersion, err := semver.NewVersion(minPostgresVersion)
	if err != nil {
		return fmt.Errorf("error parsing required postgres version: %w", err)
	}

	var serverVersion string
	if err := db.QueryRowContext(ctx, "SHOW server_version").Scan(&serverVersion); err != nil {
		return fmt.Errorf("error querying postgres version: %w", err)
	}

	// e.g. "15.4 (Debian 15.4-1.pgdg120+1)"
	fields := strings.Fields(serverVersion)
	if len(fields) == 0 {
		return fmt.Errorf("empty postgres version")
	}

	thisVersion, err := semver.NewVersion(fields[0])
	if err != nil {
		return fmt.Errorf("error parsing postgres version %q: %w", serverVersion, err)
	}

	if thisVersion.LessThan(requiredVersion) {
		log.Warnf("postgres version %s is older than %s and is not supported", thisVersion, requiredVersion)
		return nil
	}

	log.Debugf("postgres version %s", thisVersion)

	return nil
}
