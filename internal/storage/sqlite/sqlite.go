// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// SQLite stores everything in a single file on disk — no network, no
// separate server process. It is the development and test backend;
// production deployments use the postgres package. The blank import
// below registers the sqlite3 driver with database/sql as a side effect.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/aanand-mishra/users-api/internal/storage"
	"github.com/aanand-mishra/users-api/internal/types"
)

// SQLite is the concrete implementation of storage.Storage.
// The *sql.DB it holds is a connection pool managed by database/sql and
// is safe for concurrent use by multiple goroutines.
type SQLite struct {
	db *sql.DB
}

var _ storage.Storage = (*SQLite)(nil)

// New opens the SQLite database at the given path, creates the users
// table if it does not already exist, and returns a ready-to-use store.
// There is no retry loop here — opening a local file either works or it
// does not.
func New(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id          TEXT    PRIMARY KEY,
			fullname    TEXT    NOT NULL,
			study_level TEXT    NOT NULL,
			age         INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close releases the connection pool.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Ping issues a trivial round trip, used by the health check.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) CreateUser(ctx context.Context, user types.User) (types.User, error) {
	user.ID = uuid.NewString()

	stmt, err := s.db.PrepareContext(ctx,
		"INSERT INTO users (id, fullname, study_level, age) VALUES (?, ?, ?, ?)",
	)
	if err != nil {
		return types.User{}, fmt.Errorf("CreateUser: prepare: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, user.ID, user.FullName, user.StudyLevel, user.Age); err != nil {
		return types.User{}, fmt.Errorf("CreateUser: exec: %w", err)
	}

	return user, nil
}

func (s *SQLite) GetUserByID(ctx context.Context, id string) (types.User, error) {
	stmt, err := s.db.PrepareContext(ctx,
		"SELECT id, fullname, study_level, age FROM users WHERE id = ? LIMIT 1",
	)
	if err != nil {
		return types.User{}, fmt.Errorf("GetUserByID: prepare: %w", err)
	}
	defer stmt.Close()

	var user types.User
	err = stmt.QueryRowContext(ctx, id).Scan(
		&user.ID,
		&user.FullName,
		&user.StudyLevel,
		&user.Age,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, storage.ErrUserNotFound
		}
		return types.User{}, fmt.Errorf("GetUserByID: scan: %w", err)
	}

	return user, nil
}

func (s *SQLite) ListUsers(ctx context.Context) ([]types.User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, fullname, study_level, age FROM users",
	)
	if err != nil {
		return nil, fmt.Errorf("ListUsers: query: %w", err)
	}
	defer rows.Close()

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

func (s *SQLite) UpdateUserByID(ctx context.Context, id string, user types.User) (types.User, error) {
	// Same read-before-write strategy as the postgres backend so both
	// report a missing target identically.
	if _, err := s.GetUserByID(ctx, id); err != nil {
		return types.User{}, err
	}

	stmt, err := s.db.PrepareContext(ctx,
		"UPDATE users SET fullname = ?, study_level = ?, age = ? WHERE id = ?",
	)
	if err != nil {
		return types.User{}, fmt.Errorf("UpdateUserByID: prepare: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, user.FullName, user.StudyLevel, user.Age, id); err != nil {
		return types.User{}, fmt.Errorf("UpdateUserByID: exec: %w", err)
	}

	user.ID = id
	return user, nil
}

func (s *SQLite) DeleteUserByID(ctx context.Context, id string) error {
	stmt, err := s.db.PrepareContext(ctx, "DELETE FROM users WHERE id = ?")
	if err != nil {
		return fmt.Errorf("DeleteUserByID: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, id)
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
