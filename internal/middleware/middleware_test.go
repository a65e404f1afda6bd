package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw)
	r.Any("/*path", func(c *gin.Context) { c.String(http.StatusOK, "upstream") })
	return r
}

func TestMetricsBlocker_BlocksAnthropicMetricsCall(t *testing.T) {
	r := newRouter(MetricsBlocker())

	req := httptest.NewRequest(http.MethodPost, "http://api.anthropic.com/api/claude_code/metrics", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"accepted_count":0,"rejected_count":0}`, rr.Body.String())
	assert.Equal(t, "cloudflare", rr.Header().Get("Server"))
}

func TestMetricsBlocker_PassesThroughOtherHosts(t *testing.T) {
	r := newRouter(MetricsBlocker())

	req := httptest.NewRequest(http.MethodPost, "http://example.com/api/claude_code/metrics", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, "upstream", rr.Body.String())
}

func TestStatsigBlocker_BlocksStatsigHost(t *testing.T) {
	r := newRouter(StatsigBlocker())

	req := httptest.NewRequest(http.MethodPost, "http://statsig.anthropic.com/v1/rgstr", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusAccepted, rr.Code)
	assert.JSONEq(t, `{"success":true}`, rr.Body.String())
}

func TestStatsigBlocker_BlocksTelemetryPathRegardlessOfHost(t *testing.T) {
	r := newRouter(StatsigBlocker())

	req := httptest.NewRequest(http.MethodPost, "http://example.com/v1/log_event", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)
}

func TestStatsigBlocker_PassesThroughUnrelatedPaths(t *testing.T) {
	r := newRouter(StatsigBlocker())

	req := httptest.NewRequest(http.MethodGet, "http://example.com/claude-code/v1/messages", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, "upstream", rr.Body.String())
}

func TestLogging_CallsNextAndDoesNotAlterResponse(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(httptest.NewRecorder().Body, nil))
	r := newRouter(Logging(logger))

	req := httptest.NewRequest(http.MethodGet, "/claude-code/v1/messages", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "upstream", rr.Body.String())
}
