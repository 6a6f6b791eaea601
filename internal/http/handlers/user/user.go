// Package user contains all HTTP handlers for the user resource.
//
// Handlers are built with the closure/factory pattern: each exported
// function is called once at route-registration time with its
// dependencies (logger, storage) and returns the http.HandlerFunc the
// router invokes per request. Handlers depend on the storage.Storage
// interface, never on a concrete backend.
//
// Error policy: validation and not-found conditions are expected control
// flow, handled here and logged at warn. Storage failures are logged at
// error with their full text and surfaced to the client as a generic
// 500 — internal detail never reaches the response body.
package user

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aanand-mishra/users-api/internal/storage"
	"github.com/aanand-mishra/users-api/internal/types"
	"github.com/aanand-mishra/users-api/internal/utils/response"
	"github.com/aanand-mishra/users-api/internal/validation"
)

// Create handles POST /api/users.
//
// Request body: { "fullname": "John Doe", "study_level": "Master", "age": 25 }
// Success: 201 with the created record, including the generated id.
// Failures: 400 with the ordered validation error list, 500 on storage error.
func Create(log *slog.Logger, store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := decodePayload(log, w, r)
		if !ok {
			return
		}

		user, errs := validation.ValidateUser(payload)
		if errs != nil {
			log.Warn("user validation failed", slog.Any("details", errs))
			response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(errs))
			return
		}

		created, err := store.CreateUser(r.Context(), user)
		if err != nil {
			log.Error("error creating user", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(response.MsgInternalError))
			return
		}

		log.Info("user created", slog.String("id", created.ID))
		response.WriteJSON(w, http.StatusCreated, created)
	}
}

// GetList handles GET /api/users.
// Returns every record as a JSON array — [] rather than null when empty.
func GetList(log *slog.Logger, store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := store.ListUsers(r.Context())
		if err != nil {
			log.Error("error listing users", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(response.MsgInternalError))
			return
		}

		response.WriteJSON(w, http.StatusOK, users)
	}
}

// GetByID handles GET /api/users/{id}.
//
// The id is an opaque string — no format check is done here. An id that
// matches nothing, well-formed or not, is a 404.
func GetByID(log *slog.Logger, store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		user, err := store.GetUserByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				log.Warn("user not found", slog.String("id", id))
				response.WriteJSON(w, http.StatusNotFound,
					response.GeneralError(response.MsgNotFound))
				return
			}
			log.Error("error getting user",
				slog.String("id", id), slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(response.MsgInternalError))
			return
		}

		response.WriteJSON(w, http.StatusOK, user)
	}
}

// Update handles PUT /api/users/{id}.
//
// Validation runs before the existence check: a malformed body is
// rejected with 400 even when the target id does not exist.
// Success: 200 with a confirmation and the updated record.
func Update(log *slog.Logger, store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		payload, ok := decodePayload(log, w, r)
		if !ok {
			return
		}

		user, errs := validation.ValidateUser(payload)
		if errs != nil {
			log.Warn("user validation failed",
				slog.String("id", id), slog.Any("details", errs))
			response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(errs))
			return
		}

		updated, err := store.UpdateUserByID(r.Context(), id, user)
		if err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				log.Warn("user not found", slog.String("id", id))
				response.WriteJSON(w, http.StatusNotFound,
					response.GeneralError(response.MsgNotFound))
				return
			}
			log.Error("error updating user",
				slog.String("id", id), slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(response.MsgInternalError))
			return
		}

		log.Info("user updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, map[string]any{
			"status": response.StatusOK,
			"user":   updated,
		})
	}
}

// Delete handles DELETE /api/users/{id}.
// Deleting an id that no longer exists — including a second delete of
// the same id — is a 404.
func Delete(log *slog.Logger, store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := store.DeleteUserByID(r.Context(), id); err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				log.Warn("user not found", slog.String("id", id))
				response.WriteJSON(w, http.StatusNotFound,
					response.GeneralError(response.MsgNotFound))
				return
			}
			log.Error("error deleting user",
				slog.String("id", id), slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(response.MsgInternalError))
			return
		}

		log.Info("user deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// decodePayload decodes the request body into the loosely-typed payload.
// The middleware JSON gate has already rejected unparsable bodies, so a
// type error here means the body was valid JSON but not an object — the
// validator's "invalid payload" case.
func decodePayload(log *slog.Logger, w http.ResponseWriter, r *http.Request) (types.UserPayload, bool) {
	var payload types.UserPayload

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			log.Warn("payload is not an object", slog.String("value", typeErr.Value))
			response.WriteJSON(w, http.StatusBadRequest,
				response.ValidationError([]string{validation.MsgInvalidPayload}))
			return types.UserPayload{}, false
		}
		log.Warn("malformed request payload", slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(response.MsgMalformedPayload))
		return types.UserPayload{}, false
	}

	return payload, true
}
