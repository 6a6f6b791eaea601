package user_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/users-api/internal/http/handlers/user"
	"github.com/aanand-mishra/users-api/internal/storage"
	"github.com/aanand-mishra/users-api/internal/types"
	"github.com/aanand-mishra/users-api/internal/utils/response"
)

// fakeStorage is an in-memory storage.Storage. failWith, when set, makes
// every method fail the way a broken backend would.
type fakeStorage struct {
	users    map[string]types.User
	failWith error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{users: make(map[string]types.User)}
}

func (f *fakeStorage) CreateUser(_ context.Context, u types.User) (types.User, error) {
	if f.failWith != nil {
		return types.User{}, f.failWith
	}
	u.ID = uuid.NewString()
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeStorage) GetUserByID(_ context.Context, id string) (types.User, error) {
	if f.failWith != nil {
		return types.User{}, f.failWith
	}
	u, ok := f.users[id]
	if !ok {
		return types.User{}, storage.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeStorage) ListUsers(_ context.Context) ([]types.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]types.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeStorage) UpdateUserByID(_ context.Context, id string, u types.User) (types.User, error) {
	if f.failWith != nil {
		return types.User{}, f.failWith
	}
	if _, ok := f.users[id]; !ok {
		return types.User{}, storage.ErrUserNotFound
	}
	u.ID = id
	f.users[id] = u
	return u, nil
}

func (f *fakeStorage) DeleteUserByID(_ context.Context, id string) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.users[id]; !ok {
		return storage.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeStorage) Ping(context.Context) error {
	return f.failWith
}

func newTestRouter(store storage.Storage) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/users", user.GetList(log, store))
		r.Post("/users", user.Create(log, store))
		r.Get("/users/{id}", user.GetByID(log, store))
		r.Put("/users/{id}", user.Update(log, store))
		r.Delete("/users/{id}", user.Delete(log, store))
	})
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeUser(t *testing.T, rec *httptest.ResponseRecorder) types.User {
	t.Helper()
	var u types.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	return u
}

func TestCreateUser(t *testing.T) {
	router := newTestRouter(newFakeStorage())

	rec := doRequest(t, router, http.MethodPost, "/api/users",
		`{"fullname":"John Doe","study_level":"Master","age":25}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeUser(t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "John Doe", created.FullName)
	assert.Equal(t, "Master", created.StudyLevel)
	assert.Equal(t, 25, created.Age)
}

func TestCreateUserIDsAreUnique(t *testing.T) {
	router := newTestRouter(newFakeStorage())

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		rec := doRequest(t, router, http.MethodPost, "/api/users",
			`{"fullname":"John Doe","study_level":"Master","age":25}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		id := decodeUser(t, rec).ID
		assert.False(t, seen[id], "id %q issued twice", id)
		seen[id] = true
	}
}

func TestCreateUserValidationFailure(t *testing.T) {
	router := newTestRouter(newFakeStorage())

	rec := doRequest(t, router, http.MethodPost, "/api/users",
		`{"fullname":"J","study_level":"Master","age":25}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, response.StatusError, resp.Status)
	require.Len(t, resp.Details, 1)
	assert.Contains(t, resp.Details[0], "fullname")
}

func TestCreateUserNonObjectPayload(t *testing.T) {
	router := newTestRouter(newFakeStorage())

	rec := doRequest(t, router, http.MethodPost, "/api/users", `42`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"invalid payload"}, resp.Details)
}

func TestRoundTrip(t *testing.T) {
	router := newTestRouter(newFakeStorage())

	// create → get returns a field-equal record
	rec := doRequest(t, router, http.MethodPost, "/api/users",
		`{"fullname":"John Doe","study_level":"Master","age":25}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeUser(t, rec)

	rec = doRequest(t, router, http.MethodGet, "/api/users/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decodeUser(t, rec))

	// update → get reflects the new record exactly
	rec = doRequest(t, router, http.MethodPut, "/api/users/"+created.ID,
		`{"fullname":"Jane Doe","study_level":"PhD","age":30}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/users/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeUser(t, rec)
	assert.Equal(t, types.User{
		ID: created.ID, FullName: "Jane Doe", StudyLevel: "PhD", Age: 30,
	}, got)

	// delete → get 404s
	rec = doRequest(t, router, http.MethodDelete, "/api/users/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/users/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetListEmpty(t *testing.T) {
	router := newTestRouter(newFakeStorage())

	rec := doRequest(t, router, http.MethodGet, "/api/users", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestGetUserNotFound(t *testing.T) {
	router := newTestRouter(newFakeStorage())

	rec := doRequest(t, router, http.MethodGet, "/api/users/does-not-exist", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, response.MsgNotFound, resp.Error)
}

func TestUpdateUserNotFound(t *testing.T) {
	router := newTestRouter(newFakeStorage())

	rec := doRequest(t, router, http.MethodPut, "/api/users/does-not-exist",
		`{"fullname":"John Doe","study_level":"Master","age":25}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// Validation runs before the existence check: a bad body on a missing id
// is a 400, not a 404.
func TestUpdateValidationBeforeExistenceCheck(t *testing.T) {
	router := newTestRouter(newFakeStorage())

	rec := doRequest(t, router, http.MethodPut, "/api/users/does-not-exist",
		`{"fullname":"J","study_level":"Master","age":200}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Details, 2)
}

func TestDeleteIsNotIdempotent(t *testing.T) {
	router := newTestRouter(newFakeStorage())

	rec := doRequest(t, router, http.MethodPost, "/api/users",
		`{"fullname":"John Doe","study_level":"Master","age":25}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeUser(t, rec).ID

	rec = doRequest(t, router, http.MethodDelete, "/api/users/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "deleted")

	// second delete of the same id: 404, not 200
	rec = doRequest(t, router, http.MethodDelete, "/api/users/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// Storage failures surface as generic 500s; the backend's error text must
// never reach the response body.
func TestStorageErrorsAreMasked(t *testing.T) {
	store := newFakeStorage()
	store.failWith = errors.New("pq: connection reset by peer at 10.0.0.5")
	router := newTestRouter(store)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/users", ""},
		{http.MethodGet, "/api/users/some-id", ""},
		{http.MethodPost, "/api/users", `{"fullname":"John Doe","study_level":"Master","age":25}`},
		{http.MethodPut, "/api/users/some-id", `{"fullname":"John Doe","study_level":"Master","age":25}`},
		{http.MethodDelete, "/api/users/some-id", ""},
	} {
		rec := doRequest(t, router, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, "%s %s", tc.method, tc.path)
		assert.NotContains(t, rec.Body.String(), "10.0.0.5")
		assert.Contains(t, rec.Body.String(), response.MsgInternalError)
	}
}
