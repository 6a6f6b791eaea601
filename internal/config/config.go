// Package config handles loading and parsing application configuration.
//
// Configuration is environment-sourced: every knob maps to an env var with
// a sensible default, so the binary runs in a container with nothing but
// env vars set. For local development a YAML file can be pointed at with
// CONFIG_PATH; env vars still win over the file.
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root configuration structure.
//
// HTTPServer, Database and Log are embedded (not pointers) so their fields
// are reachable directly on Config after promotion, e.g. cfg.Port.
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-default:"dev"`

	HTTPServer `yaml:"http_server"`
	Database   `yaml:"database"`
	Log        `yaml:"log"`
}

// HTTPServer holds settings specific to the HTTP listener.
type HTTPServer struct {
	Port string `yaml:"port" env:"PORT" env-default:"8080"`
}

// Database holds settings for the backing store.
//
// Driver selects the backend: "postgres" (the default) talks to a server
// over the DB_* variables; "sqlite" opens the file at StoragePath and is
// meant for local development and tests.
type Database struct {
	Driver string `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`

	Host string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	User string `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Pass string `yaml:"pass" env:"DB_PASS" env-default:""`
	Name string `yaml:"name" env:"DB_NAME" env-default:"users"`

	// StoragePath is the filesystem path of the SQLite database file,
	// used only when Driver is "sqlite".
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH" env-default:"users.db"`

	// MaxOpenConns caps the connection pool. Requests beyond the cap
	// queue on the pool rather than failing.
	MaxOpenConns int `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"10"`

	// MaxRetries and RetryDelay bound the startup connection loop:
	// MaxRetries attempts with a fixed RetryDelay between them.
	MaxRetries int           `yaml:"max_retries" env:"DB_MAX_RETRIES" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env:"DB_RETRY_DELAY" env-default:"5s"`
}

// Log holds settings for the log sinks.
type Log struct {
	// Dir is the directory log files are appended to, created if absent.
	Dir string `yaml:"dir" env:"LOG_DIR" env-default:"logs"`
}

// MustLoad reads, validates, and returns the application config.
//
// Functions prefixed with "Must" are allowed to terminate the process on
// failure — if MustLoad returns, the config is guaranteed usable.
func MustLoad() *Config {
	var cfg Config

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			log.Fatalf("config file does not exist: %s", configPath)
		}
		// ReadConfig reads the YAML file and then overlays any env:"..."
		// tagged fields found in the environment.
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			log.Fatalf("cannot read config: %s", err.Error())
		}
		return &cfg
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("cannot read config from environment: %s", err.Error())
	}
	return &cfg
}
