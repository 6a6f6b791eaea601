// Package types holds the shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles —
// handlers, storage, and validation can all import types without
// depending on each other.
package types

// User is the normalized user record — the shape that is persisted and
// returned to API clients.
//
// The ID is assigned server-side at creation time (a random 128-bit UUID
// rendered in its canonical string form) and never changes afterwards.
type User struct {
	ID         string `json:"id"`
	FullName   string `json:"fullname"`
	StudyLevel string `json:"study_level"`
	Age        int    `json:"age"`
}

// UserPayload is the loosely-typed intermediate shape a request body is
// decoded into before validation.
//
// The fields are deliberately `any` rather than concrete types: a client
// may send `"age": "25"` or `"fullname": 42`, and the validator — not the
// JSON decoder — decides what is acceptable. Decoding straight into User
// would turn those cases into opaque decode errors and lose the
// per-field messages the API promises.
type UserPayload struct {
	FullName   any `json:"fullname"`
	StudyLevel any `json:"study_level"`
	Age        any `json:"age"`
}
