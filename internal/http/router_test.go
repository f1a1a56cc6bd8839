package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/redmonkez12/trailpass/docs"
	"github.com/redmonkez12/trailpass/internal/auth"
	"github.com/redmonkez12/trailpass/internal/config"
	"github.com/redmonkez12/trailpass/internal/credential"
	"github.com/redmonkez12/trailpass/internal/license"
	"github.com/redmonkez12/trailpass/internal/logging"
	"github.com/redmonkez12/trailpass/internal/metrics"
	"github.com/redmonkez12/trailpass/internal/ratelimit"
	"github.com/redmonkez12/trailpass/internal/storage"
	"github.com/redmonkez12/trailpass/internal/user"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{TrustedOrigins: []string{"https://app.example"}},
		RateLimit: config.RateLimitConfig{Enabled: true, Requests: 2, Window: time.Minute},
	}
}

func newTestRouter(t *testing.T, limiter ratelimit.Limiter) http.Handler {
	t.Helper()
	return newTestRouterWithConfig(t, testConfig(), limiter)
}

func newTestRouterWithConfig(t *testing.T, cfg *config.Config, limiter ratelimit.Limiter) http.Handler {
	t.Helper()

	tokens, err := auth.NewJWTService([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	m := metrics.New()
	svc := credential.NewService(user.NewRepository(store), license.NewLedger(store), auth.NewBcryptHasher(4), tokens, m, logging.Discard())

	return NewRouter(cfg, Dependencies{
		Handler:        credential.NewHandler(svc),
		AuthMiddleware: auth.NewMiddleware(tokens),
		Limiter:        limiter,
		Metrics:        m,
		Logger:         logging.Discard(),
	})
}

func TestRouter_HealthAndHeaders(t *testing.T) {
	r := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"api is running"}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestRouter_Metrics(t *testing.T) {
	r := newTestRouter(t, nil)

	body := `{"email":"a@b.com","password":"secret1","name":"A"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `trailpass_registrations_total{kind="",outcome="success"} 1`)
}

func TestRouter_RateLimitsRegistration(t *testing.T) {
	r := newTestRouter(t, ratelimit.NewMemoryLimiter(2, time.Minute))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		body := fmt.Sprintf(`{"email":"u%d@b.com","password":"secret1","name":"U"}`, i)
		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
		req.RemoteAddr = "192.0.2.7:4000"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, codes)

	// Login has its own budget
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"u0@b.com","password":"secret1"}`))
	req.RemoteAddr = "192.0.2.7:4000"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/licenses", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_LicenseRoutes(t *testing.T) {
	r := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/licenses", strings.NewReader(`{"userId":"nobody","type":"fishing"}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/licenses/abc/verify", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/abc/licenses", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ServeAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(ln.Addr().String(), newTestRouter(t, nil), time.Second, time.Second, logging.Discard())

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.NoError(t, <-done)
}

func TestRouter_SwaggerOnlyInDevelopment(t *testing.T) {
	dev := testConfig()
	dev.Server.Env = "dev"
	r := newTestRouterWithConfig(t, dev, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"/auth/register"`)
	assert.Contains(t, rec.Body.String(), `"/licenses/{id}/verify"`)
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "script-src 'self'")

	prod := testConfig()
	prod.Server.Env = "prod"
	r = newTestRouterWithConfig(t, prod, nil)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "default-src 'none'", rec.Header().Get("Content-Security-Policy"))
}
