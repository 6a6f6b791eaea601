// Package logger configures the process-wide structured logger.
//
// Every record goes to two append-only sinks: stdout (for the container
// runtime to collect) and a file under the configured log directory (for
// local inspection). slog is Go's structured logger; writing key=value
// pairs rather than plain strings keeps the logs filterable in tools
// like Loki or Datadog.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aanand-mishra/users-api/internal/config"
)

// Setup builds a *slog.Logger for the given environment and log directory.
//
// Development (dev): human-readable text output at DEBUG level.
// Production (prod): machine-readable JSON output at INFO level.
func Setup(cfg *config.Config) (*slog.Logger, error) {
	if err := os.MkdirAll(cfg.Log.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("logger.Setup: create log dir: %w", err)
	}

	file, err := os.OpenFile(
		filepath.Join(cfg.Log.Dir, "app.log"),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY,
		0o644,
	)
	if err != nil {
		return nil, fmt.Errorf("logger.Setup: open log file: %w", err)
	}

	out := io.MultiWriter(os.Stdout, file)

	switch cfg.Env {
	case "prod":
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})), nil
	case "staging":
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})), nil
	default: // "dev" and anything unrecognised
		return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})), nil
	}
}

// MustSetup is Setup for main(): it exits the process instead of
// returning an error.
func MustSetup(cfg *config.Config) *slog.Logger {
	log, err := Setup(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	return log
}
