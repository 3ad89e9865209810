package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/jinzhu/copier"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/getzep/ducks/pkg/forms"
	"github.com/getzep/ducks/pkg/models"
	"github.com/getzep/ducks/pkg/observability"
	"github.com/getzep/ducks/pkg/store"
)

var _ models.DuckStore = &DuckStoreDAO{}

type DuckStoreDAO struct {
	db *bun.DB
}

func NewDuckStoreDAO(db *bun.DB) *DuckStoreDAO {
	return &DuckStoreDAO{
		db: db,
	}
}

// CreateDuck validates and inserts a new duck.
func (dao *DuckStoreDAO) CreateDuck(
	ctx context.Context,
	duck *models.CreateDuckRequest,
) (*models.Duck, error) {
	req := *duck
	req.Normalize()
	if err := forms.Validate(&req); err != nil {
		return nil, err
	}

	duckDB := &DuckSchema{
		Name:        req.Name,
		Description: req.Description,
	}
	_, err := dao.db.NewInsert().Model(duckDB).Returning("*").Exec(ctx)
	if err != nil {
		return nil, store.NewStorageError("failed to create duck", err)
	}

	return duckSchemaToDuck(duckDB)
}

// GetDuck gets a duck by id, with its facts ordered by id.
func (dao *DuckStoreDAO) GetDuck(ctx context.Context, duckID int64) (*models.Duck, error) {
	duck := new(DuckSchema)
	err := dao.db.NewSelect().
		Model(duck).
		Relation("FactRows", orderFacts).
		Where("d.id = ?", duckID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("duck " + strconv.FormatInt(duckID, 10))
		}
		return nil, store.NewStorageError("failed to get duck", err)
	}

	return duckSchemaToDuck(duck)
}

// GetDuckByName returns the lowest-id duck with exactly this name.
func (dao *DuckStoreDAO) GetDuckByName(ctx context.Context, name string) (*models.Duck, error) {
	duck := new(DuckSchema)
	err := dao.db.NewSelect().
		Model(duck).
		Relation("FactRows", orderFacts).
		Where("d.name = ?", name).
		OrderExpr("d.id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("duck " + name)
		}
		return nil, store.NewStorageError("failed to get duck by name", err)
	}

	return duckSchemaToDuck(duck)
}

// ListDucks returns all ducks without their facts, oldest first.
func (dao *DuckStoreDAO) ListDucks(ctx context.Context) ([]*models.Duck, error) {
	var ducks []*DuckSchema
	err := dao.db.NewSelect().
		Model(&ducks).
		OrderExpr("d.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, store.NewStorageError("failed to list ducks", err)
	}

	result := make([]*models.Duck, len(ducks))
	for i, duck := range ducks {
		d, err := duckSchemaToDuck(duck)
		if err != nil {
			return nil, err
		}
		result[i] = d
	}

	return result, nil
}

// DeleteDuck deletes a duck and its facts in a single transaction.
func (dao *DuckStoreDAO) DeleteDuck(ctx context.Context, duckID int64) (*models.Duck, error) {
	tx, err := dao.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, store.NewStorageError("failed to begin transaction", err)
	}
	defer rollbackOnError(tx)

	duck := new(DuckSchema)
	err = tx.NewSelect().Model(duck).Where("d.id = ?", duckID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("duck " + strconv.FormatInt(duckID, 10))
		}
		return nil, store.NewStorageError("failed to get duck", err)
	}

	_, err = tx.NewDelete().
		Model((*DuckFactSchema)(nil)).
		Where("duck_id = ?", duckID).
		Exec(ctx)
	if err != nil {
		return nil, store.NewStorageError("failed to delete duck facts", err)
	}

	r, err := tx.NewDelete().
		Model((*DuckSchema)(nil)).
		Where("id = ?", duckID).
		Exec(ctx)
	if err != nil {
		return nil, store.NewStorageError("failed to delete duck", err)
	}
	rowsAffected, err := r.RowsAffected()
	if err != nil {
		return nil, store.NewStorageError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return nil, models.NewNotFoundError("duck " + strconv.FormatInt(duckID, 10))
	}

	if err := tx.Commit(); err != nil {
		return nil, store.NewStorageError("failed to commit transaction", err)
	}

	return duckSchemaToDuck(duck)
}

func (dao *DuckStoreDAO) CountDucks(ctx context.Context) (int, error) {
	count, err := dao.db.NewSelect().Model((*DuckSchema)(nil)).Count(ctx)
	if err != nil {
		return 0, store.NewStorageError("failed to count ducks", err)
	}
	return count, nil
}

// CreateFact validates and inserts a fact for an existing duck. New facts start with a rating of 0.
func (dao *DuckStoreDAO) CreateFact(
	ctx context.Context,
	duckID int64,
	fact *models.CreateFactRequest,
) (*models.DuckFact, error) {
	req := *fact
	req.Normalize()
	if err := forms.Validate(&req); err != nil {
		return nil, err
	}

	tx, err := dao.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, store.NewStorageError("failed to begin transaction", err)
	}
	defer rollbackOnError(tx)

	exists, err := tx.NewSelect().
		Model((*DuckSchema)(nil)).
		Where("d.id = ?", duckID).
		Exists(ctx)
	if err != nil {
		return nil, store.NewStorageError("failed to get duck", err)
	}
	if !exists {
		return nil, models.NewNotFoundError("duck " + strconv.FormatInt(duckID, 10))
	}

	factDB := &DuckFactSchema{
		DuckID: duckID,
		Fact:   req.Fact,
		Rating: 0,
	}
	_, err = tx.NewInsert().Model(factDB).Returning("*").Exec(ctx)
	if err != nil {
		if err, ok := err.(pgdriver.Error); ok && err.IntegrityViolation() {
			return nil, models.NewNotFoundError("duck " + strconv.FormatInt(duckID, 10))
		}
		return nil, store.NewStorageError("failed to create fact", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, store.NewStorageError("failed to commit transaction", err)
	}

	return factSchemaToFact(factDB)
}

func (dao *DuckStoreDAO) GetFact(ctx context.Context, factID int64) (*models.DuckFact, error) {
	fact := new(DuckFactSchema)
	err := dao.db.NewSelect().Model(fact).Where("df.id = ?", factID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("fact " + strconv.FormatInt(factID, 10))
		}
		return nil, store.NewStorageError("failed to get fact", err)
	}
	return factSchemaToFact(fact)
}

// DeleteFact deletes a fact, returning it so callers can redirect to its duck.
func (dao *DuckStoreDAO) DeleteFact(ctx context.Context, factID int64) (*models.DuckFact, error) {
	tx, err := dao.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, store.NewStorageError("failed to begin transaction", err)
	}
	defer rollbackOnError(tx)

	fact := new(DuckFactSchema)
	err = tx.NewSelect().Model(fact).Where("df.id = ?", factID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("fact " + strconv.FormatInt(factID, 10))
		}
		return nil, store.NewStorageError("failed to get fact", err)
	}

	_, err = tx.NewDelete().
		Model((*DuckFactSchema)(nil)).
		Where("id = ?", factID).
		Exec(ctx)
	if err != nil {
		return nil, store.NewStorageError("failed to delete fact", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, store.NewStorageError("failed to commit transaction", err)
	}

	return factSchemaToFact(fact)
}

// AdjustRating applies delta to a fact's rating with a single UPDATE, so
// concurrent votes are never lost.
func (dao *DuckStoreDAO) AdjustRating(
	ctx context.Context,
	factID int64,
	delta int,
) (*models.DuckFact, error) {
	return dao.adjustRating(ctx, 0, factID, delta)
}

// RateFact applies a vote to a fact, provided the fact belongs to duckID.
func (dao *DuckStoreDAO) RateFact(
	ctx context.Context,
	duckID, factID int64,
	direction models.Direction,
) (*models.DuckFact, error) {
	delta := direction.Delta()
	if delta == 0 {
		return nil, models.NewBadRequestError(fmt.Sprintf("invalid vote direction %q", direction))
	}
	return dao.adjustRating(ctx, duckID, factID, delta)
}

// adjustRating traces a rating change.
func (dao *DuckStoreDAO) adjustRating(
	ctx context.Context,
	duckID, factID int64,
	delta int,
) (*models.DuckFact, error) {
	ctx, span := observability.Tracer().Start(ctx, "DuckStoreDAO.adjustRating",
		trace.WithAttributes(
			attribute.Int64("ducks.duck_id", duckID),
			attribute.Int64("ducks.fact_id", factID),
			attribute.Int("ducks.rating_delta", delta),
		),
	)
	defer span.End()

	fact, err := dao.applyRating(ctx, duckID, factID, delta)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("ducks.rating", fact.Rating))

	return fact, nil
}

// applyRating restricts the update to facts of duckID unless it is 0.
func (dao *DuckStoreDAO) applyRating(
	ctx context.Context,
	duckID, factID int64,
	delta int,
) (*models.DuckFact, error) {
	if delta != 1 && delta != -1 {
		return nil, models.NewBadRequestError(fmt.Sprintf("invalid rating delta %d", delta))
	}

	tx, err := dao.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, store.NewStorageError("failed to begin transaction", err)
	}
	defer rollbackOnError(tx)

	q := tx.NewUpdate().
		Model((*DuckFactSchema)(nil)).
		Set("rating = rating + ?", delta).
		Where("id = ?", factID)
	if duckID != 0 {
		q = q.Where("duck_id = ?", duckID)
	}

	r, err := q.Exec(ctx)
	if err != nil {
		return nil, store.NewStorageError("failed to update rating", err)
	}
	rowsAffected, err := r.RowsAffected()
	if err != nil {
		return nil, store.NewStorageError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return nil, models.NewNotFoundError("fact " + strconv.FormatInt(factID, 10))
	}

	fact := new(DuckFactSchema)
	if err := tx.NewSelect().Model(fact).Where("df.id = ?", factID).Scan(ctx); err != nil {
		return nil, store.NewStorageError("failed to get fact", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, store.NewStorageError("failed to commit transaction", err)
	}

	return factSchemaToFact(fact)
}

func (dao *DuckStoreDAO) CountFacts(ctx context.Context) (int, error) {
	count, err := dao.db.NewSelect().Model((*DuckFactSchema)(nil)).Count(ctx)
	if err != nil {
		return 0, store.NewStorageError("failed to count facts", err)
	}
	return count, nil
}

func (dao *DuckStoreDAO) Close() error {
	if dao.db != nil {
		return dao.db.Close()
	}
	return nil
}

func orderFacts(q *bun.SelectQuery) *bun.SelectQuery {
	return q.OrderExpr("df.id ASC")
}

func duckSchemaToDuck(duckDB *DuckSchema) (*models.Duck, error) {
	duck := new(models.Duck)
	if err := copier.Copy(duck, duckDB); err != nil {
		return nil, fmt.Errorf("failed to copy duck: %w", err)
	}

	if len(duckDB.FactRows) > 0 {
		duck.Facts = make([]*models.DuckFact, len(duckDB.FactRows))
		for i, row := range duckDB.FactRows {
			fact, err := factSchemaToFact(row)
			if err != nil {
				return nil, err
			}
			duck.Facts[i] = fact
		}
	}

	return duck, nil
}

func factSchemaToFact(factDB *DuckFactSchema) (*models.DuckFact, error) {
	fact := new(models.DuckFact)
	if err := copier.Copy(fact, factDB); err != nil {
		return nil, fmt.Errorf("failed to copy fact: %w", err)
	}
	return fact, nil
}

func rollbackOnError(tx bun.Tx) {
	if rollBackErr := tx.Rollback(); rollBackErr != nil && !errors.Is(rollBackErr, sql.ErrTxDone) {
		log.Error("failed to rollback transaction", rollBackErr)
	}
}
