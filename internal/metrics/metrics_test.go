package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(gateDenials.WithLabelValues("cab", "qa"))
	GateDenied("cab", "qa")
	GateDenied("cab", "qa")
	assert.Equal(t, before+2, testutil.ToFloat64(gateDenials.WithLabelValues("cab", "qa")))

	FileUpload("error")
	assert.GreaterOrEqual(t, testutil.ToFloat64(fileUploads.WithLabelValues("error")), 1.0)

	SetSessions(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(sessions))
}

func TestHandler(t *testing.T) {
	PageView("dashboard", "developer")
	Submission("upload", "success")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), MetricPageViews)
	assert.Contains(t, string(body), `form="upload"`)
}
