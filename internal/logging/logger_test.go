package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_TextInDevelopment(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, true)

	l.Debug("dbg", "a", 1)
	l.WithFields(map[string]any{"user_id": "u1"}).Info("hello")

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "msg=hello")
	assert.Contains(t, out, "user_id=u1")
}

func TestNewLogger_JSONInProduction(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)

	l.Debug("hidden")
	l.Info("shown", "k", "v")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "v", entry["k"])
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)

	var fromCtx *Logger
	h := middleware.RequestID(RequestLogger(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = GetLoggerFromContext(r.Context())
		w.WriteHeader(http.StatusNotFound)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/licenses/x/verify", nil))

	require.NotNil(t, fromCtx)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var completed map[string]any
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &completed))
	assert.Equal(t, "request completed", completed["msg"])
	assert.Equal(t, slog.LevelWarn.String(), completed["level"])
	assert.Equal(t, float64(http.StatusNotFound), completed["status"])
	assert.Equal(t, "/licenses/x/verify", completed["path"])
	assert.NotEmpty(t, completed["request_id"])
}

func TestGetLoggerFromContext_Fallback(t *testing.T) {
	assert.NotNil(t, GetLoggerFromContext(context.Background()))
}
