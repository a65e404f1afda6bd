package proxy

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/aicodeswitch/aicodeswitch/internal/config"
)

func targetTypeForPath(path string) (config.TargetType, bool) {
	switch {
	case strings.HasPrefix(path, "/claude-code/"):
		return config.TargetClaudeCode, true
	case strings.HasPrefix(path, "/codex/"):
		return config.TargetCodex, true
	default:
		return "", false
	}
}

func checkAuth(r *http.Request, apiKey string) bool {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return false
	}
	return strings.TrimPrefix(auth, prefix) == apiKey
}

func headerMap(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			out[strings.ToLower(k)] = v[0]
		}
	}
	return out
}

func queryMap(v url.Values) map[string]string {
	out := make(map[string]string, len(v))
	for k := range v {
		out[k] = v.Get(k)
	}
	return out
}

// isStreamingRequest reports whether the request body or Accept header
// asks for an SSE response.
func isStreamingRequest(body map[string]any, headers http.Header) bool {
	if s, ok := body["stream"].(bool); ok && s {
		return true
	}
	return strings.Contains(headers.Get("Accept"), "text/event-stream")
}
