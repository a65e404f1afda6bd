package proxy

import (
	"net/http"
	"strings"

	"github.com/aicodeswitch/aicodeswitch/internal/config"
)

var strippedClientHeaders = map[string]bool{
	"host":           true,
	"connection":     true,
	"content-length": true,
	"authorization":  true,
}

// buildUpstreamHeaders copies client headers except host/connection/
// content-length/authorization, sets the vendor-family auth header,
// defaults anthropic-version, and forces content-type/accept per §4.6.5.
func buildUpstreamHeaders(client http.Header, service config.APIService, streaming bool) http.Header {
	out := http.Header{}

	for k, values := range client {
		if strippedClientHeaders[strings.ToLower(k)] {
			continue
		}
		for _, v := range values {
			out.Add(k, v)
		}
	}

	out.Set("Content-Type", "application/json")

	if isClaudeFamily(service.SourceType) {
		out.Set("x-api-key", service.APIKey)
		if out.Get("anthropic-version") == "" {
			out.Set("anthropic-version", "2023-06-01")
		}
	} else {
		out.Set("Authorization", "Bearer "+service.APIKey)
	}

	if streaming {
		out.Set("Accept", "text/event-stream")
	}

	return out
}
