package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrement(t *testing.T) {
	m := New()

	m.NotificationFailed("Account Verification")
	m.NotificationFailed("Account Verification")
	m.CredentialEvent("otp_verify", "success")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.notificationFailures.WithLabelValues("Account Verification")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.credentialEvents.WithLabelValues("otp_verify", "success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.credentialEvents.WithLabelValues("otp_verify", "expired")))
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.CredentialEvent("reset_consume", "success")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `account_core_credential_events_total{event="reset_consume",outcome="success"} 1`))
}

func TestSeparateInstancesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = New()
		_ = New()
	})
}
