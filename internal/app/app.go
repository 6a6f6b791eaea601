// Package app drives the application lifecycle as an explicit state
// machine:
//
//	NotStarted → Connecting → Ready → Serving
//	                └──────→ Failed (terminal)
//
// The HTTP listener binds only after the machine reaches Ready — no
// request is ever routed while the store is still unverified, and if the
// connection retries are exhausted no listener is opened at all. main()
// turns a Failed machine into a non-zero process exit.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aanand-mishra/users-api/internal/config"
	"github.com/aanand-mishra/users-api/internal/http/handlers/health"
	"github.com/aanand-mishra/users-api/internal/http/handlers/user"
	"github.com/aanand-mishra/users-api/internal/http/middleware"
	"github.com/aanand-mishra/users-api/internal/storage"
	"github.com/aanand-mishra/users-api/internal/storage/postgres"
	"github.com/aanand-mishra/users-api/internal/storage/sqlite"
)

// State is the startup lifecycle state.
type State int

const (
	StateNotStarted State = iota
	StateConnecting
	StateReady
	StateServing
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateServing:
		return "serving"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// App owns the storage handle and HTTP server. Handlers borrow the
// storage handle through the Storage interface; the handle owns the
// pool; the pool owns the physical connections.
type App struct {
	cfg   *config.Config
	log   *slog.Logger
	state State
	store storage.Storage
}

// New returns an App in the NotStarted state. Nothing is dialed or
// bound until Run.
func New(cfg *config.Config, log *slog.Logger) *App {
	return &App{cfg: cfg, log: log, state: StateNotStarted}
}

// State reports the current lifecycle state.
func (a *App) State() State {
	return a.state
}

func (a *App) transition(next State) {
	a.log.Info("state transition",
		slog.String("from", a.state.String()),
		slog.String("to", next.String()),
	)
	a.state = next
}

// Run drives the machine to Serving and blocks until a shutdown signal
// or a fatal server error. A non-nil return means the caller should
// exit non-zero.
func (a *App) Run() error {
	a.transition(StateConnecting)

	store, err := a.connectStorage()
	if err != nil {
		a.transition(StateFailed)
		return fmt.Errorf("app.Run: storage unavailable: %w", err)
	}
	a.store = store
	a.transition(StateReady)

	server := &http.Server{
		Handler: a.router(),

		// Guard against slow clients holding connections open.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Bind explicitly before declaring Serving so a port conflict is a
	// startup failure, not a background surprise.
	listener, err := net.Listen("tcp", ":"+a.cfg.HTTPServer.Port)
	if err != nil {
		a.transition(StateFailed)
		return fmt.Errorf("app.Run: bind listener: %w", err)
	}
	a.transition(StateServing)
	a.log.Info("server started", slog.String("port", a.cfg.HTTPServer.Port))

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(listener)
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		// Serve only returns on failure (or Shutdown, which has not
		// been called yet on this path).
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("app.Run: serve: %w", err)
		}
		return nil
	case <-done:
	}

	a.log.Info("shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("app.Run: shutdown: %w", err)
	}

	a.log.Info("server stopped gracefully")
	return nil
}

// connectStorage builds the backend named by DB_DRIVER. The postgres
// backend carries the bounded retry loop; sqlite opens a local file and
// fails fast.
func (a *App) connectStorage() (storage.Storage, error) {
	switch a.cfg.Database.Driver {
	case "sqlite":
		return sqlite.New(a.cfg.Database.StoragePath)
	case "postgres":
		return postgres.Connect(a.cfg, a.log)
	default:
		return nil, fmt.Errorf("unknown database driver %q", a.cfg.Database.Driver)
	}
}

// router wires the middleware chain and the route table:
//
//	GET    /api/users        → list
//	POST   /api/users        → create
//	GET    /api/users/{id}   → get one
//	PUT    /api/users/{id}   → update
//	DELETE /api/users/{id}   → delete
//	GET    /health           → liveness
//	GET    /metrics          → prometheus
func (a *App) router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer(a.log))
	r.Use(middleware.Metrics)
	r.Use(middleware.AccessLog(a.log))
	r.Use(middleware.RejectMalformedJSON(a.log))

	r.Route("/api", func(r chi.Router) {
		r.Get("/users", user.GetList(a.log, a.store))
		r.Post("/users", user.Create(a.log, a.store))
		r.Get("/users/{id}", user.GetByID(a.log, a.store))
		r.Put("/users/{id}", user.Update(a.log, a.store))
		r.Delete("/users/{id}", user.Delete(a.log, a.store))
	})

	r.Get("/health", health.New(a.log, a.store))
	r.Handle("/metrics", promhttp.Handler())

	return r
}
