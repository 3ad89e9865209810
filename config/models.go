package config

import "time"

// Config holds the configuration of the application
// Use config.LoadConfig to create a new instance
type Config struct {
	Store  StoreConfig  `mapstructure:"store"  json:"store"`
	Server ServerConfig `mapstructure:"server" json:"server"`
	Log    LogConfig    `mapstructure:"log"    json:"log"`
	Auth   AuthConfig   `mapstructure:"auth"   json:"auth"`
	Web    WebConfig    `mapstructure:"web"    json:"web"`
	OTel   OTelConfig   `mapstructure:"otel"   json:"otel"`
}

type StoreConfig struct {
	Type     string         `mapstructure:"type"     json:"type" jsonschema:"enum=postgres,enum=sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres" json:"postgres"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"   json:"sqlite"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn" json:"dsn"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path" json:"path"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"             json:"host"`
	Port            int           `mapstructure:"port"             json:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout"`
	// CustomHeaders are added to every response. Values prefixed with "env:"
	// are read from the named environment variable.
	CustomHeaders map[string]string `mapstructure:"custom_headers" json:"custom_headers"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"  json:"level"`
	Format string `mapstructure:"format" json:"format" jsonschema:"enum=text,enum=json"`
}

type AuthConfig struct {
	Secret   string `mapstructure:"secret"   json:"secret"`
	Required bool   `mapstructure:"required" json:"required"`
}

// WebConfig configures the server-rendered pages.
// MessageSecret signs the one-shot status message cookie. When empty a random
// secret is generated per process, so pending messages do not survive a restart.
type WebConfig struct {
	MessageSecret string `mapstructure:"message_secret" json:"message_secret"`
}

type OTelConfig struct {
	Enabled     bool   `mapstructure:"enabled"      json:"enabled"`
	Endpoint    string `mapstructure:"endpoint"     json:"endpoint"`
	Insecure    bool   `mapstructure:"insecure"     json:"insecure"`
	ServiceName string `mapstructure:"service_name" json:"service_name"`
}
