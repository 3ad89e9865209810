package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/getzep/ducks/config"
	"github.com/getzep/ducks/internal"
	"github.com/getzep/ducks/pkg/store/sqlstore"
	"github.com/getzep/ducks/pkg/store/sqlstore/migrations"
)

var (
	log *logrus.Logger

	cfgFile     string
	showVersion bool
	dumpConfig  bool
	generateKey bool
	fixturePath string
	rollback    bool
	reset       bool
)

var cmd = &cobra.Command{
	Use:          "ducks",
	Short:        "ducks is a catalog of ducks and the facts people vote on",
	SilenceUsage: true,
	RunE:         func(cmd *cobra.Command, args []string) error { return run() },
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema and apply migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if rollback {
			return migrations.Rollback(context.Background(), db)
		}
		if reset {
			log.Warn("dropping all ducks and facts")
			if err := sqlstore.DropSchema(context.Background(), db); err != nil {
				return err
			}
		}
		if err := sqlstore.CreateSchema(context.Background(), db); err != nil {
			return err
		}
		fmt.Println("Database is up to date.")
		return nil
	},
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test utilities",
}

var createFixturesCmd = &cobra.Command{
	Use:   "create-fixtures",
	Short: "Create fixtures for testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		fixtureCount, _ := cmd.Flags().GetInt("count")
		outputDir, _ := cmd.Flags().GetString("outputDir")
		if err := sqlstore.GenerateFixtureData(fixtureCount, outputDir); err != nil {
			return err
		}
		fmt.Println("Fixtures created successfully.")
		return nil
	},
}

var loadFixturesCmd = &cobra.Command{
	Use:   "load-fixtures",
	Short: "Load fixtures for testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := sqlstore.LoadFixtures(context.Background(), db, fixturePath); err != nil {
			return fmt.Errorf("failed to load fixtures: %w", err)
		}
		fmt.Println("Fixtures loaded successfully.")
		return nil
	},
}

var dumpJsonSchemaCmd = &cobra.Command{
	Use:     "json-schema",
	Short:   "Generates JSON Schema for the ducks configuration file",
	Example: "ducks json-schema > ducks_config_schema.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := config.JSONSchema()
		if err != nil {
			return err
		}
		fmt.Println(string(schema))
		return nil
	},
}

func init() {
	testCmd.AddCommand(createFixturesCmd)
	testCmd.AddCommand(loadFixturesCmd)
	cmd.AddCommand(testCmd)
	cmd.AddCommand(migrateCmd)
	cmd.AddCommand(dumpJsonSchemaCmd)

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default config.yaml)")
	cmd.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "print version number")
	cmd.PersistentFlags().BoolVarP(&dumpConfig, "dump-config", "d", false, "dump config")
	cmd.PersistentFlags().
		BoolVarP(&generateKey, "generate-token", "g", false, "generate a new JWT token")

	migrateCmd.Flags().BoolVar(&rollback, "rollback", false, "roll back the last migration group")
	migrateCmd.Flags().
		BoolVar(&reset, "reset", false, "drop all tables and data, then recreate the schema")
	migrateCmd.MarkFlagsMutuallyExclusive("rollback", "reset")

	createFixturesCmd.Flags().Int("count", 20, "Number of ducks to generate")
	createFixturesCmd.Flags().String("outputDir", "./test_data", "Path to output fixtures")
	loadFixturesCmd.Flags().
		StringVarP(&fixturePath, "fixturePath", "f", "./test_data", "Path containing fixtures to load")
}

// Execute executes the root cobra command.
func Execute() {
	log = internal.GetLogger()
	log.SetLevel(logrus.InfoLevel)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
