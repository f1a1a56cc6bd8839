package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondJSON(rec, map[string]string{"status": "ok"}, http.StatusCreated)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRespondErrorWithCode(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondErrorWithCode(rec, "email already exists", CodeDuplicateEmail, http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "email already exists", body.Error)
	assert.Equal(t, CodeDuplicateEmail, body.Code)
}

func TestRespondError_OmitsEmptyCode(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, "boom", http.StatusInternalServerError)

	assert.JSONEq(t, `{"error":"boom"}`, rec.Body.String())
}
