package sqlstore

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/getzep/ducks/pkg/models"
)

func newTestStore(t *testing.T) *DuckStoreDAO {
	t.Helper()
	return NewDuckStoreDAO(NewTestDB(t))
}

func createTestDuck(t *testing.T, dao *DuckStoreDAO, name string) *models.Duck {
	t.Helper()
	duck, err := dao.CreateDuck(context.Background(), &models.CreateDuckRequest{
		Name:        name,
		Description: "A duck called " + name,
	})
	require.NoError(t, err)
	return duck
}

func createTestFact(t *testing.T, dao *DuckStoreDAO, duckID int64, fact string) *models.DuckFact {
	t.Helper()
	f, err := dao.CreateFact(context.Background(), duckID, &models.CreateFactRequest{Fact: fact})
	require.NoError(t, err)
	return f
}

func TestDuckStoreDAO_CreateDuck(t *testing.T) {
	ctx := context.Background()
	dao := newTestStore(t)

	t.Run("Create valid duck", func(t *testing.T) {
		duck, err := dao.CreateDuck(ctx, &models.CreateDuckRequest{
			Name:        "  Mallard ",
			Description: "Green head",
		})
		require.NoError(t, err)
		assert.NotZero(t, duck.ID)
		assert.Equal(t, "Mallard", duck.Name)
		assert.Equal(t, "Green head", duck.Description)
		assert.Empty(t, duck.Facts)
	})

	t.Run("Missing fields", func(t *testing.T) {
		_, err := dao.CreateDuck(ctx, &models.CreateDuckRequest{Name: " "})
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrValidation))

		var validationErr *models.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, []string{"description", "name"}, validationErr.Fields.Fields())
	})

	t.Run("Name too long", func(t *testing.T) {
		_, err := dao.CreateDuck(ctx, &models.CreateDuckRequest{
			Name:        strings.Repeat("a", 201),
			Description: "ok",
		})
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("Name at max length", func(t *testing.T) {
		duck, err := dao.CreateDuck(ctx, &models.CreateDuckRequest{
			Name:        strings.Repeat("é", 200),
			Description: "ok",
		})
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("é", 200), duck.Name)
	})

	t.Run("Duplicate names are allowed", func(t *testing.T) {
		first := createTestDuck(t, dao, "Twin")
		second := createTestDuck(t, dao, "Twin")
		assert.NotEqual(t, first.ID, second.ID)

		byName, err := dao.GetDuckByName(ctx, "Twin")
		require.NoError(t, err)
		assert.Equal(t, first.ID, byName.ID)
	})
}

func TestDuckStoreDAO_GetDuck(t *testing.T) {
	ctx := context.Background()
	dao := newTestStore(t)

	duck := createTestDuck(t, dao, "Pekin")
	f1 := createTestFact(t, dao, duck.ID, "Pekins are white")
	f2 := createTestFact(t, dao, duck.ID, "Pekins are domestic")

	got, err := dao.GetDuck(ctx, duck.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pekin", got.Name)
	require.Len(t, got.Facts, 2)
	assert.Equal(t, f1.ID, got.Facts[0].ID)
	assert.Equal(t, f2.ID, got.Facts[1].ID)
	assert.Equal(t, duck.ID, got.Facts[0].DuckID)
	assert.Equal(t, 0, got.Facts[0].Rating)

	t.Run("Not found", func(t *testing.T) {
		_, err := dao.GetDuck(ctx, duck.ID+1000)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("By name not found", func(t *testing.T) {
		_, err := dao.GetDuckByName(ctx, "Nobody")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestDuckStoreDAO_ListDucks(t *testing.T) {
	ctx := context.Background()
	dao := newTestStore(t)

	ducks, err := dao.ListDucks(ctx)
	require.NoError(t, err)
	assert.Empty(t, ducks)

	a := createTestDuck(t, dao, "Alpha")
	b := createTestDuck(t, dao, "Beta")

	ducks, err = dao.ListDucks(ctx)
	require.NoError(t, err)
	require.Len(t, ducks, 2)
	assert.Equal(t, a.ID, ducks[0].ID)
	assert.Equal(t, b.ID, ducks[1].ID)

	count, err := dao.CountDucks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	CleanDB(t, dao.db)

	ducks, err = dao.ListDucks(ctx)
	require.NoError(t, err)
	assert.Empty(t, ducks)

	c := createTestDuck(t, dao, "Gamma")
	ducks, err = dao.ListDucks(ctx)
	require.NoError(t, err)
	require.Len(t, ducks, 1)
	assert.Equal(t, c.ID, ducks[0].ID)
}

func TestDuckStoreDAO_DeleteDuck(t *testing.T) {
	ctx := context.Background()
	dao := newTestStore(t)

	keep := createTestDuck(t, dao, "Keeper")
	createTestFact(t, dao, keep.ID, "stays")

	duck := createTestDuck(t, dao, "Goner")
	createTestFact(t, dao, duck.ID, "one")
	createTestFact(t, dao, duck.ID, "two")

	deleted, err := dao.DeleteDuck(ctx, duck.ID)
	require.NoError(t, err)
	assert.Equal(t, "Goner", deleted.Name)

	_, err = dao.GetDuck(ctx, duck.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	facts, err := dao.CountFacts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, facts)

	ducks, err := dao.CountDucks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, ducks)

	t.Run("Delete again", func(t *testing.T) {
		_, err := dao.DeleteDuck(ctx, duck.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestDuckStoreDAO_Facts(t *testing.T) {
	ctx := context.Background()
	dao := newTestStore(t)

	duck := createTestDuck(t, dao, "Teal")

	t.Run("Create for missing duck", func(t *testing.T) {
		_, err := dao.CreateFact(ctx, duck.ID+1000, &models.CreateFactRequest{Fact: "orphan"})
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("Empty fact", func(t *testing.T) {
		_, err := dao.CreateFact(ctx, duck.ID, &models.CreateFactRequest{Fact: "   "})
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("Create get and delete", func(t *testing.T) {
		fact := createTestFact(t, dao, duck.ID, " Teals are small ")
		assert.Equal(t, "Teals are small", fact.Fact)
		assert.Equal(t, 0, fact.Rating)

		got, err := dao.GetFact(ctx, fact.ID)
		require.NoError(t, err)
		assert.Equal(t, fact, got)

		deleted, err := dao.DeleteFact(ctx, fact.ID)
		require.NoError(t, err)
		assert.Equal(t, duck.ID, deleted.DuckID)

		_, err = dao.GetFact(ctx, fact.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)

		_, err = dao.DeleteFact(ctx, fact.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestDuckStoreDAO_RateFactTracing(t *testing.T) {
	ctx := context.Background()
	dao := newTestStore(t)

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	duck := createTestDuck(t, dao, "Teal")
	fact := createTestFact(t, dao, duck.ID, "Teals are small")

	_, err := dao.RateFact(ctx, duck.ID, fact.ID, models.DirectionUp)
	require.NoError(t, err)

	_, err = dao.RateFact(ctx, duck.ID, fact.ID+1000, models.DirectionDown)
	require.ErrorIs(t, err, models.ErrNotFound)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	ok := spans[0]
	assert.Equal(t, "DuckStoreDAO.adjustRating", ok.Name())
	assert.Contains(t, ok.Attributes(), attribute.Int64("ducks.duck_id", duck.ID))
	assert.Contains(t, ok.Attributes(), attribute.Int64("ducks.fact_id", fact.ID))
	assert.Contains(t, ok.Attributes(), attribute.Int("ducks.rating_delta", 1))
	assert.Contains(t, ok.Attributes(), attribute.Int("ducks.rating", 1))
	assert.Equal(t, codes.Unset, ok.Status().Code)

	failed := spans[1]
	assert.Contains(t, failed.Attributes(), attribute.Int("ducks.rating_delta", -1))
	assert.Equal(t, codes.Error, failed.Status().Code)
	require.Len(t, failed.Events(), 1)
	assert.Equal(t, "exception", failed.Events()[0].Name)
}

func TestDuckStoreDAO_RateFact(t *testing.T) {
	ctx := context.Background()
	dao := newTestStore(t)

	duck := createTestDuck(t, dao, "Wigeon")
	other := createTestDuck(t, dao, "Shoveler")
	fact := createTestFact(t, dao, duck.ID, "Wigeons whistle")

	rated, err := dao.RateFact(ctx, duck.ID, fact.ID, models.DirectionUp)
	require.NoError(t, err)
	assert.Equal(t, 1, rated.Rating)

	for i := 0; i < 3; i++ {
		rated, err = dao.RateFact(ctx, duck.ID, fact.ID, models.DirectionDown)
		require.NoError(t, err)
	}
	assert.Equal(t, -2, rated.Rating)

	t.Run("Fact of another duck", func(t *testing.T) {
		_, err := dao.RateFact(ctx, other.ID, fact.ID, models.DirectionUp)
		assert.ErrorIs(t, err, models.ErrNotFound)

		got, err := dao.GetFact(ctx, fact.ID)
		require.NoError(t, err)
		assert.Equal(t, -2, got.Rating)
	})

	t.Run("Missing fact", func(t *testing.T) {
		_, err := dao.RateFact(ctx, duck.ID, fact.ID+1000, models.DirectionUp)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("Invalid direction", func(t *testing.T) {
		_, err := dao.RateFact(ctx, duck.ID, fact.ID, models.Direction("sideways"))
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})

	t.Run("AdjustRating rejects large delta", func(t *testing.T) {
		_, err := dao.AdjustRating(ctx, fact.ID, 5)
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})

	t.Run("AdjustRating", func(t *testing.T) {
		got, err := dao.AdjustRating(ctx, fact.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, -1, got.Rating)
	})
}

func TestDuckStoreDAO_ConcurrentVotes(t *testing.T) {
	ctx := context.Background()
	dao := newTestStore(t)

	duck := createTestDuck(t, dao, "Scaup")
	fact := createTestFact(t, dao, duck.ID, "Scaups dive")

	const voters = 20
	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := dao.RateFact(ctx, duck.ID, fact.ID, models.DirectionUp)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	got, err := dao.GetFact(ctx, fact.ID)
	require.NoError(t, err)
	assert.Equal(t, voters, got.Rating)
}
