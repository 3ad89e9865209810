package migrations

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"github.com/getzep/ducks/internal"
)

var log = internal.GetLogger()

//go:embed *.sql
var sqlMigrations embed.FS

func newMigrator(db *bun.DB) (*migrate.Migrator, error) {
	migrations := migrate.NewMigrations()

	if err := migrations.Discover(sqlMigrations); err != nil {
		return nil, fmt.Errorf("failed to discover migrations: %w", err)
	}

	return migrate.NewMigrator(db, migrations), nil
}

// Migrate applies all pending migrations. A failed group is rolled back.
func Migrate(ctx context.Context, db *bun.DB) (err error) {
	migrator, err := newMigrator(db)
	if err != nil {
		return err
	}

	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to init migrator: %w", err)
	}

	if err := migrator.Lock(ctx); err != nil {
		return fmt.Errorf("failed to lock migrator: %w", err)
	}
	defer func() {
		if unlockErr := migrator.Unlock(ctx); unlockErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to unlock migrator: %w", unlockErr))
		}
	}()

	group, err := migrator.Migrate(ctx)
	if err != nil {
		if _, rollbackErr := migrator.Rollback(ctx); rollbackErr != nil {
			return fmt.Errorf(
				"failed to apply migrations and rollback was unsuccessful: %w",
				errors.Join(err, rollbackErr),
			)
		}
		return fmt.Errorf("failed to apply migrations. rolled back successfully. %w", err)
	}

	if group.IsZero() {
		log.Info("there are no new migrations to run (database is up to date)")
		return nil
	}
	log.Infof("migrated to %s", group)

	return nil
}

// Reset drops the migration bookkeeping tables and recreates them empty, so
// the next Migrate applies every migration again.
func Reset(ctx context.Context, db *bun.DB) error {
	migrator, err := newMigrator(db)
	if err != nil {
		return err
	}

	if err := migrator.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset migrations: %w", err)
	}

	return nil
}

// Rollback reverts the most recently applied migration group.
func Rollback(ctx context.Context, db *bun.DB) (err error) {
	migrator, err := newMigrator(db)
	if err != nil {
		return err
	}

	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to init migrator: %w", err)
	}

	if err := migrator.Lock(ctx); err != nil {
		return fmt.Errorf("failed to lock migrator: %w", err)
	}
	defer func() {
		if unlockErr := migrator.Unlock(ctx); unlockErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to unlock migrator: %w", unlockErr))
		}
	}()

	group, err := migrator.Rollback(ctx)
	if err != nil {
		return fmt.Errorf("failed to rollback migrations: %w", err)
	}

	if group.IsZero() {
		log.Info("there are no groups to roll back")
		return nil
	}
	log.Infof("rolled back %s", group)

	return nil
}
