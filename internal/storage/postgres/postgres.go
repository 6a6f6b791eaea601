// Package postgres provides the PostgreSQL-backed implementation of the
// storage.Storage interface using database/sql and the lib/pq driver.
//
// Connect owns the startup sequence for the store: it establishes the
// pooled connection, verifies it with a ping, and bootstraps the schema,
// retrying the whole sequence a bounded number of times with a fixed
// delay. The HTTP listener is only opened once Connect has returned, so
// the service never accepts traffic without a verified store behind it.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	// Blank import: side-effect only (registers the "postgres" driver
	// with database/sql).
	_ "github.com/lib/pq"

	"github.com/aanand-mishra/users-api/internal/config"
	"github.com/aanand-mishra/users-api/internal/storage"
	"github.com/aanand-mishra/users-api/internal/types"
)

// Postgres is the concrete implementation of storage.Storage.
// The embedded *sql.DB is a connection pool and is safe for concurrent
// use by multiple goroutines; when the pool is exhausted, callers queue
// on it rather than failing.
type Postgres struct {
	db *sql.DB
}

var _ storage.Storage = (*Postgres)(nil)

const createTableStmt = `
	CREATE TABLE IF NOT EXISTS users (
		id          CHAR(36)     PRIMARY KEY,
		fullname    VARCHAR(255) NOT NULL,
		study_level VARCHAR(255) NOT NULL,
		age         INTEGER      NOT NULL
	)
`

// Connect establishes the pooled connection and ensures the users table
// exists, retrying up to cfg.MaxRetries times with cfg.RetryDelay between
// attempts. Each failed attempt is logged; when every attempt has failed
// the last error is returned and the caller is expected to terminate the
// process rather than serve degraded traffic.
func Connect(cfg *config.Config, log *slog.Logger) (*Postgres, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Database.Host, cfg.Database.User, cfg.Database.Pass, cfg.Database.Name,
	)

	var lastErr error
	for attempt := 1; attempt <= cfg.Database.MaxRetries; attempt++ {
		pg, err := open(dsn, cfg.Database.MaxOpenConns)
		if err == nil {
			return pg, nil
		}
		lastErr = err

		log.Warn("database connection attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("max_retries", cfg.Database.MaxRetries),
			slog.String("error", err.Error()),
		)
		if attempt < cfg.Database.MaxRetries {
			time.Sleep(cfg.Database.RetryDelay)
		}
	}

	return nil, fmt.Errorf("postgres.Connect: %d attempts exhausted: %w",
		cfg.Database.MaxRetries, lastErr)
}

// open performs one connection attempt: open the pool, verify it with a
// ping, and run the idempotent schema bootstrap.
func open(dsn string, maxOpenConns int) (*Postgres, error) {
	// sql.Open does not dial anything yet — it only validates the DSN.
	// The ping below forces a real connection.
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	// CREATE TABLE IF NOT EXISTS is idempotent — safe on every startup,
	// never destructive.
	if _, err := db.ExecContext(ctx, createTableStmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &Postgres{db: db}, nil
}

// New wraps an existing database handle. Used by tests; production code
// goes through Connect.
func New(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Ping issues a trivial round trip, used by the health check.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Postgres) CreateUser(ctx context.Context, user types.User) (types.User, error) {
	user.ID = uuid.NewString()

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO users (id, fullname, study_level, age)
		VALUES ($1, $2, $3, $4)
	`, user.ID, user.FullName, user.StudyLevel, user.Age)
	if err != nil {
		return types.User{}, fmt.Errorf("CreateUser: exec: %w", err)
	}

	return user, nil
}

func (p *Postgres) GetUserByID(ctx context.Context, id string) (types.User, error) {
	var user types.User

	err := p.db.QueryRowContext(ctx, `
		SELECT id, fullname, study_level, age FROM users WHERE id = $1
	`, id).Scan(&user.ID, &user.FullName, &user.StudyLevel, &user.Age)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, storage.ErrUserNotFound
		}
		return types.User{}, fmt.Errorf("GetUserByID: scan: %w", err)
	}

	return user, nil
}

func (p *Postgres) ListUsers(ctx context.Context) ([]types.User, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, fullname, study_level, age FROM users
	`)
	if err != nil {
		return nil, fmt.Errorf("ListUsers: query: %w", err)
	}
	defer rows.Close()

	// Pre-allocate a non-nil slice so an empty table encodes as []
	// rather than null.
	users := make([]types.User, 0)

	for rows.Next() {
		var user types.User
		if err := rows.Scan(&user.ID, &user.FullName, &user.StudyLevel, &user.Age); err != nil {
			return nil, fmt.Errorf("ListUsers: scan row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListUsers: rows iteration: %w", err)
	}

	return users, nil
}

// UpdateUserByID does a read-before-write existence check so the caller
// can distinguish a missing record from a write failure. The two
// statements are not wrapped in a transaction; a concurrent delete
// between them is an accepted race at this scale.
func (p *Postgres) UpdateUserByID(ctx context.Context, id string, user types.User) (types.User, error) {
	if _, err := p.GetUserByID(ctx, id); err != nil {
		return types.User{}, err
	}

	_, err := p.db.ExecContext(ctx, `
		UPDATE users SET fullname = $2, study_level = $3, age = $4 WHERE id = $1
	`, id, user.FullName, user.StudyLevel, user.Age)
	if err != nil {
		return types.User{}, fmt.Errorf("UpdateUserByID: exec: %w", err)
	}

	user.ID = id
	return user, nil
}

// DeleteUserByID relies on the affected-row count of the delete itself
// rather than a separate existence check.
func (p *Postgres) DeleteUserByID(ctx context.Context, id string) error {
	result, err := p.db.ExecContext(ctx, `
		DELETE FROM users WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("DeleteUserByID: exec: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteUserByID: rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}
