package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var statsigBlockedPaths = []string{
	"/v1/initialize",
	"/v1/log_event",
	"/v1/rgstr",
	"/statsig",
	"/telemetry",
	"/analytics",
}

// StatsigBlocker answers Claude Code's Statsig telemetry calls locally
// instead of letting them leak out through the proxy.
func StatsigBlocker() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isStatsigRequest(c.Request.Host, c.Request.URL.Path) {
			c.Header("X-Content-Type-Options", "nosniff")
			c.Header("Permissions-Policy", "interest-cohort=()")
			c.Header("X-Frame-Options", "SAMEORIGIN")
			c.Header("X-Response-Time", "0 ms")
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Origin", "*")
			c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
			c.Header("Alt-Svc", `h3=":443"; ma=2592000,h3-29=":443"; ma=2592000`)
			c.Header("Via", "1.1 google, 1.1 google")
			c.AbortWithStatusJSON(http.StatusAccepted, gin.H{"success": true})
			return
		}

		c.Next()
	}
}

func isStatsigRequest(host, path string) bool {
	if strings.Contains(host, "statsig.anthropic.com") {
		return true
	}
	for _, p := range statsigBlockedPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
