package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	err := WriteJSON(rec, http.StatusNotFound, GeneralError(MsgNotFound))
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"error","error":"user not found"}`, rec.Body.String())
}

func TestValidationErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()

	details := []string{"fullname must be a string with at least 2 characters"}
	require.NoError(t, WriteJSON(rec, http.StatusBadRequest, ValidationError(details)))

	assert.JSONEq(t,
		`{"status":"error","error":"validation failed","details":["fullname must be a string with at least 2 characters"]}`,
		rec.Body.String())
}

// details must be omitted, not null, when absent.
func TestGeneralErrorOmitsDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteJSON(rec, http.StatusInternalServerError, GeneralError(MsgInternalError)))
	assert.NotContains(t, rec.Body.String(), "details")
}
