package sqlstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/getzep/ducks/pkg/models"
)

func TestGenerateAndLoadFixtures(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	require.NoError(t, GenerateFixtureData(5, dir))

	_, err := os.Stat(filepath.Join(dir, fixtureFileName))
	require.NoError(t, err)

	db := NewTestDB(t)
	dao := NewDuckStoreDAO(db)
	createTestDuck(t, dao, "Replaced")

	require.NoError(t, LoadFixtures(ctx, db, dir))

	count, err := dao.CountDucks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	_, err = dao.GetDuckByName(ctx, "Replaced")
	assert.Error(t, err)

	ducks, err := dao.ListDucks(ctx)
	require.NoError(t, err)
	for _, duck := range ducks {
		assert.NotEmpty(t, duck.Name)
		assert.LessOrEqual(t, len([]rune(duck.Description)), 200)
	}
}

func TestGenerateFixtureDataFactSpread(t *testing.T) {
	const duckCount = 300
	dir := t.TempDir()

	require.NoError(t, GenerateFixtureData(duckCount, dir))

	data, err := os.ReadFile(filepath.Join(dir, fixtureFileName))
	require.NoError(t, err)

	var fixtures Fixtures
	require.NoError(t, yaml.Unmarshal(data, &fixtures))
	require.Len(t, fixtures, 2)
	require.Len(t, fixtures[0].Rows, duckCount)

	perDuck := make(map[string]int)
	for _, row := range fixtures[1].Rows {
		perDuck[row["duck_id"].(string)]++
	}

	seen := make(map[int]int)
	for i := 0; i < duckCount; i++ {
		n := perDuck[fmt.Sprintf("{{ $.DuckSchema.duck_%d.ID }}", i)]
		assert.LessOrEqual(t, n, 5)
		seen[n]++
	}
	// every fact count from 0 to 5 is drawn
	for n := 0; n <= 5; n++ {
		assert.Positive(t, seen[n], "no duck has %d facts", n)
	}
}

func TestCreateSchemaIsIdempotent(t *testing.T) {
	db := NewTestDB(t)
	require.NoError(t, CreateSchema(context.Background(), db))
}

func TestDropSchema(t *testing.T) {
	ctx := context.Background()
	db := NewTestDB(t)
	dao := NewDuckStoreDAO(db)

	duck, err := dao.CreateDuck(ctx, &models.CreateDuckRequest{Name: "Mallard", Description: "green head"})
	require.NoError(t, err)
	_, err = dao.CreateFact(ctx, duck.ID, &models.CreateFactRequest{Fact: "dabbles"})
	require.NoError(t, err)

	require.NoError(t, DropSchema(ctx, db))

	_, err = dao.CountDucks(ctx)
	assert.Error(t, err, "duck table should be gone")

	require.NoError(t, CreateSchema(ctx, db))

	ducks, err := dao.CountDucks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, ducks)

	// the index migration ran again on the fresh tables
	for _, index := range []string{"duck_name_idx", "duck_fact_duck_id_idx"} {
		var n int
		err := db.NewRaw(
			"SELECT count(*) FROM sqlite_master WHERE type = 'index' AND name = ?",
			index,
		).Scan(ctx, &n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, index)
	}
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t,
		"ducks.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		sqliteDSN("ducks.db"),
	)
	assert.Equal(t,
		"file:x?mode=memory&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		sqliteDSN("file:x?mode=memory"),
	)
}
