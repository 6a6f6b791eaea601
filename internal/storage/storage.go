// Package storage defines the Storage interface — the contract any
// database backend must satisfy to work with this application.
//
// Handlers depend only on this interface, never on a concrete backend.
// Switching databases means implementing the interface for the new one
// and changing a single line of wiring; handler tests pass a fake.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/users-api/internal/types"
)

// ErrUserNotFound is the sentinel returned when a lookup or mutation
// targets an id that does not exist. Handlers translate it to 404;
// every other storage error is reported as a generic 500.
var ErrUserNotFound = errors.New("user not found")

// Storage is the database contract.
//
// All methods take a context so callers can pass the request context
// through; the backends do not impose their own per-call timeouts.
type Storage interface {
	// CreateUser inserts a new record, assigning it a fresh unique id,
	// and returns the record as stored.
	CreateUser(ctx context.Context, user types.User) (types.User, error)

	// GetUserByID fetches a single record by id.
	// Returns ErrUserNotFound if no record matches.
	GetUserByID(ctx context.Context, id string) (types.User, error)

	// ListUsers returns every record.
	// Returns an empty slice (not nil) when there are none.
	ListUsers(ctx context.Context) ([]types.User, error)

	// UpdateUserByID replaces the fields of an existing record, keeping
	// its id. Returns the updated record, or ErrUserNotFound.
	UpdateUserByID(ctx context.Context, id string, user types.User) (types.User, error)

	// DeleteUserByID removes a record permanently.
	// Returns ErrUserNotFound if no record matched.
	DeleteUserByID(ctx context.Context, id string) error

	// Ping verifies connectivity with a trivial round trip.
	Ping(ctx context.Context) error
}
