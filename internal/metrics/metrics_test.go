package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveCounters(t *testing.T) {
	before := testutil.ToFloat64(interactions.WithLabelValues("add", "ok"))
	ObserveInteraction("add", "ok")
	assert.Equal(t, before+1, testutil.ToFloat64(interactions.WithLabelValues("add", "ok")))

	before = testutil.ToFloat64(discordRequests.WithLabelValues("send_message", "0"))
	ObserveDiscordRequest("send_message", 0)
	assert.Equal(t, before+1, testutil.ToFloat64(discordRequests.WithLabelValues("send_message", "0")))

	before = testutil.ToFloat64(dashboardRefreshes.WithLabelValues("public", "false"))
	ObserveDashboardRefresh("public", false)
	assert.Equal(t, before+1, testutil.ToFloat64(dashboardRefreshes.WithLabelValues("public", "false")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	ObserveHTTPRequest("POST", "/interactions", 200, 3*time.Millisecond)
	ObserveDeferredTask("ok")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `eventboard_http_requests_total{method="POST",route="/interactions",status="200"}`)
	assert.Contains(t, string(body), "eventboard_http_request_duration_seconds_bucket")
	assert.Contains(t, string(body), `eventboard_deferred_tasks_total{outcome="ok"}`)
}
