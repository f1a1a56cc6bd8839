package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/redmonkez12/trailpass/internal/apperr"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.Registrations.WithLabelValues(OutcomeSuccess, "").Inc()
	m.Registrations.WithLabelValues(OutcomeRejected, "DuplicateEmail").Inc()
	m.Registrations.WithLabelValues(OutcomeRejected, "DuplicateEmail").Inc()
	m.LicenseVerifications.WithLabelValues("valid").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Registrations.WithLabelValues(OutcomeSuccess, "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Registrations.WithLabelValues(OutcomeRejected, "DuplicateEmail")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LicenseVerifications.WithLabelValues("valid")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.Logins.WithLabelValues(OutcomeSuccess, "").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `trailpass_logins_total{kind="",outcome="success"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.Logins.WithLabelValues(OutcomeError, "").Inc()

	assert.Equal(t, 0.0, testutil.ToFloat64(b.Logins.WithLabelValues(OutcomeError, "")))
}

func TestRecord(t *testing.T) {
	m := New()

	Record(m.LicensesIssued, nil)
	Record(m.LicensesIssued, apperr.ErrUserNotFound)
	Record(m.LicensesIssued, errors.New("disk full"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LicensesIssued.WithLabelValues(OutcomeSuccess, "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LicensesIssued.WithLabelValues(OutcomeRejected, apperr.KindUserNotFound.String())))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LicensesIssued.WithLabelValues(OutcomeError, "")))
}
