package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	"github.com/getzep/ducks/internal"
	"github.com/getzep/ducks/pkg/store/sqlstore/migrations"
)

var log = internal.GetLogger()

type DuckSchema struct {
	bun.BaseModel `bun:"table:duck,alias:d" yaml:"-"`

	ID          int64             `bun:",pk,autoincrement"            yaml:"id,omitempty"`
	Name        string            `bun:"type:varchar(200),notnull"    yaml:"name"`
	Description string            `bun:"type:varchar(200),notnull"    yaml:"description"`
	FactRows    []*DuckFactSchema `bun:"rel:has-many,join:id=duck_id" yaml:"-"`
}

// BeforeCreateTable is a marker method to ensure uniform interface across all table models - used in table creation iterator
func (d *DuckSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

type DuckFactSchema struct {
	bun.BaseModel `bun:"table:duck_fact,alias:df" yaml:"-"`

	ID     int64       `bun:",pk,autoincrement"                                yaml:"id,omitempty"`
	DuckID int64       `bun:",notnull"                                         yaml:"duck_id"`
	Fact   string      `bun:"type:varchar(200),notnull"                        yaml:"fact"`
	Rating int         `bun:",notnull,default:0"                               yaml:"rating"`
	Duck   *DuckSchema `bun:"rel:belongs-to,join:duck_id=id,on_delete:cascade" yaml:"-"`
}

func (f *DuckFactSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

// tableList is ordered so that referenced tables are created first
var tableList = []bun.BeforeCreateTableHook{
	&DuckSchema{},
	&DuckFactSchema{},
}

// CreateSchema creates the db schema if it does not exist and applies migrations.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, schema := range tableList {
		_, err := db.NewCreateTable().
			Model(schema).
			IfNotExists().
			WithForeignKeys().
			Exec(ctx)
		if err != nil {
			// bun still trying to create indexes despite IfNotExists flag
			if strings.Contains(err.Error(), "already exists") {
				continue
			}
			return fmt.Errorf("error creating table for schema %T: %w", schema, err)
		}
	}

	if err := migrations.Migrate(ctx, db); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// DropSchema drops all tables, dependent tables first, and forgets which
// migrations were applied.
func DropSchema(ctx context.Context, db *bun.DB) error {
	for i := len(tableList) - 1; i >= 0; i-- {
		_, err := db.NewDropTable().
			Model(tableList[i]).
			IfExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("error dropping table for schema %T: %w", tableList[i], err)
		}
	}

	if err := migrations.Reset(ctx, db); err != nil {
		return fmt.Errorf("failed to reset migrations: %w", err)
	}

	return nil
}
