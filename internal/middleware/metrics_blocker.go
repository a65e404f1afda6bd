package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var metricsBlockedPaths = []string{
	"/api/claude_code/metrics",
	"/claude_code/metrics",
}

// MetricsBlocker answers Claude Code's own metrics telemetry calls locally
// instead of letting them leak to api.anthropic.com through the proxy.
func MetricsBlocker() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isMetricsRequest(c.Request.Host, c.Request.URL.Path) {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
			c.Header("Via", "1.1 google")
			c.Header("Cf-Cache-Status", "DYNAMIC")
			c.Header("X-Robots-Tag", "none")
			c.Header("Server", "cloudflare")
			c.AbortWithStatusJSON(http.StatusOK, gin.H{"accepted_count": 0, "rejected_count": 0})
			return
		}

		c.Next()
	}
}

func isMetricsRequest(host, path string) bool {
	if !strings.Contains(host, "api.anthropic.com") {
		return false
	}
	for _, p := range metricsBlockedPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
