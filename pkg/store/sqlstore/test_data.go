package sqlstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dbfixture"
	"github.com/uptrace/bun/extra/bundebug"
	"gopkg.in/yaml.v3"

	"github.com/getzep/ducks/pkg/models"
)

const fixtureFileName = "ducks_fixtures.yaml"

// FixtureRow is a loosely typed row so that facts can reference generated
// duck ids through dbfixture templates.
type FixtureRow map[string]any

type FixtureModel struct {
	Model string       `yaml:"model"`
	Rows  []FixtureRow `yaml:"rows"`
}

type Fixtures []FixtureModel

// GenerateFixtureData writes fixtureCount ducks, each with a handful of rated
// facts, to outputDir as a dbfixture yaml file.
func GenerateFixtureData(fixtureCount int, outputDir string) error {
	fakerGlobal := gofakeit.NewUnlocked(0)
	gofakeit.SetGlobalFaker(fakerGlobal)

	ducks := make([]FixtureRow, fixtureCount)
	var facts []FixtureRow
	for i := 0; i < fixtureCount; i++ {
		rowID := fmt.Sprintf("duck_%d", i)
		ducks[i] = FixtureRow{
			"_id":         rowID,
			"name":        truncate(gofakeit.Adjective() + " " + gofakeit.Color() + " Duck"),
			"description": truncate(gofakeit.Sentence(12)),
		}

		factCount := gofakeit.Number(0, 5)
		for j := 0; j < factCount; j++ {
			facts = append(facts, FixtureRow{
				"duck_id": fmt.Sprintf("{{ $.DuckSchema.%s.ID }}", rowID),
				"fact":    truncate(gofakeit.Sentence(10)),
				"rating":  gofakeit.Number(-5, 20),
			})
		}
	}

	fixtures := Fixtures{
		{Model: "DuckSchema", Rows: ducks},
		{Model: "DuckFactSchema", Rows: facts},
	}

	data, err := yaml.Marshal(&fixtures)
	if err != nil {
		return fmt.Errorf("failed to marshal fixtures: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	filename := filepath.Join(outputDir, fixtureFileName)
	if err := os.WriteFile(filename, data, 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write fixtures: %w", err)
	}

	log.Infof("fixtures generated successfully in %s", filename)

	return nil
}

// LoadFixtures replaces the contents of the store with every yaml fixture file in fixturePath.
func LoadFixtures(
	ctx context.Context,
	db *bun.DB,
	fixturePath string,
) error {
	db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	db.RegisterModel((*DuckSchema)(nil), (*DuckFactSchema)(nil))

	if err := CreateSchema(ctx, db); err != nil {
		return err
	}

	// facts first, as they reference ducks
	if _, err := db.NewDelete().Model((*DuckFactSchema)(nil)).Where("1 = 1").Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear facts: %w", err)
	}
	if _, err := db.NewDelete().Model((*DuckSchema)(nil)).Where("1 = 1").Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear ducks: %w", err)
	}

	fixture := dbfixture.New(db)

	files, err := os.ReadDir(fixturePath)
	if err != nil {
		return fmt.Errorf("failed to read fixture directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() {
			continue
		}
		ext := filepath.Ext(file.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if err := fixture.Load(ctx, os.DirFS(fixturePath), file.Name()); err != nil {
			return fmt.Errorf("failed to load fixture %s: %w", file.Name(), err)
		}
	}

	return nil
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) > models.MaxFieldLength {
		return string(runes[:models.MaxFieldLength])
	}
	return s
}
