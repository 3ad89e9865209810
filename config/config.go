package config

import (
	"errors"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/getzep/ducks/internal"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	StoreTypePostgres = "postgres"
	StoreTypeSQLite   = "sqlite"
)

// We're bootstrapping so avoid any imports from other packages
var log = logrus.New()

// defaultConfig is merged into the loaded config for any key left unset.
func defaultConfig() Config {
	return Config{
		Store: StoreConfig{
			Type: StoreTypeSQLite,
			SQLite: SQLiteConfig{
				Path: "ducks.db",
			},
		},
		Server: ServerConfig{
			Port:            8000,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: internal.LogFormatText,
		},
		OTel: OTelConfig{
			Endpoint:    "localhost:4318",
			ServiceName: "ducks",
		},
	}
}

// LoadConfig loads the config file and ENV variables into a Config struct.
// A missing config file is not an error; defaults and the environment apply.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
	}

	v.SetConfigType("yaml")

	v.SetEnvPrefix("DUCKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Environment variables take precedence over config file
	loadDotEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, err
		}
		log.Debug("config file not found, using defaults and environment")
	}

	// AutomaticEnv only applies to keys viper already knows about
	for _, key := range []string{
		"store.type",
		"store.postgres.dsn",
		"store.sqlite.path",
		"server.host",
		"server.port",
		"server.shutdown_timeout",
		"log.level",
		"log.format",
		"auth.secret",
		"auth.required",
		"web.message_secret",
		"otel.enabled",
		"otel.endpoint",
		"otel.insecure",
		"otel.service_name",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := mergo.Merge(&cfg, defaultConfig()); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadDotEnv loads environment variables from .env file
func loadDotEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Debug(".env file not found or unable to load")
	}
}

// SetLogLevel sets the log level and format based on the config file.
// The level defaults to INFO if not set or invalid.
func SetLogLevel(cfg *Config) {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	internal.SetLogLevel(level)
	internal.SetLogFormat(cfg.Log.Format)
	log.Info("Log level set to: ", level)
}
