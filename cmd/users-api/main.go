// main is the entry point of the Users API.
//
// Startup sequence:
//  1. Load configuration from the environment (or CONFIG_PATH YAML)
//  2. Initialise the structured logger (console + LOG_DIR file sink)
//  3. Hand control to the app state machine: connect storage (with
//     bounded retries), then bind and serve the HTTP listener
//  4. On SIGINT/SIGTERM, drain in-flight requests and exit
//
// If the store cannot be reached after exhausting the retries, Run
// returns an error, no listener is ever opened, and the process exits
// non-zero.
package main

import (
	"log/slog"
	"os"

	"github.com/aanand-mishra/users-api/internal/app"
	"github.com/aanand-mishra/users-api/internal/config"
	"github.com/aanand-mishra/users-api/internal/logger"
)

func main() {
	cfg := config.MustLoad()
	log := logger.MustSetup(cfg)

	log.Info("starting users-api",
		slog.String("env", cfg.Env),
		slog.String("db_driver", cfg.Database.Driver),
	)

	if err := app.New(cfg, log).Run(); err != nil {
		log.Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
