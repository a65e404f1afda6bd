// Package reqlog defines the log records the Proxy Engine produces and the
// sink interface they are written through. Persistence, aggregation, and
// export of these records are external collaborators; this package only
// defines the shapes and an in-memory default sink for standalone use.
package reqlog

import (
	"time"

	"github.com/aicodeswitch/aicodeswitch/internal/config"
)

// RequestLog is one record per proxied request under /claude-code/** or
// /codex/**, written only when logging is enabled.
type RequestLog struct {
	ID                    string            `json:"id"`
	Timestamp             time.Time         `json:"timestamp"`
	Method                string            `json:"method"`
	Path                  string            `json:"path"`
	RequestHeaders        map[string]string `json:"requestHeaders"`
	RequestBody           string            `json:"requestBody"`
	StatusCode            int               `json:"statusCode"`
	ResponseTimeMS        int64             `json:"responseTimeMs"`
	TargetProvider        string            `json:"targetProvider"`
	TargetType            config.TargetType `json:"targetType"`
	TargetServiceID       string            `json:"targetServiceId"`
	TargetServiceName     string            `json:"targetServiceName"`
	TargetModel           string            `json:"targetModel"`
	VendorID              string            `json:"vendorId"`
	VendorName            string            `json:"vendorName"`
	RequestModel          string            `json:"requestModel"`
	ResponseHeaders       map[string]string `json:"responseHeaders"`
	ResponseBody          string            `json:"responseBody,omitempty"`
	StreamChunks          [][]byte          `json:"streamChunks,omitempty"`
	Usage                 config.TokenUsage `json:"usage"`
	EstimatedPromptTokens int               `json:"estimatedPromptTokens,omitempty"`
	Error                 string            `json:"error,omitempty"`
}

// AccessLog is recorded for every request unconditionally, regardless of
// the logging-enabled flag or path.
type AccessLog struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	RemoteAddr string    `json:"remoteAddr"`
	UserAgent  string    `json:"userAgent"`

	StatusCode     int    `json:"statusCode"`
	ResponseTimeMS int64  `json:"responseTimeMs"`
	Error          string `json:"error,omitempty"`
}

// AccessLogPatch updates the completion fields of an AccessLog.
type AccessLogPatch struct {
	StatusCode     int
	ResponseTimeMS int64
	Error          string
}

// ErrorLog is written on any exception, with full request context.
type ErrorLog struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Method    string            `json:"method"`
	Path      string            `json:"path"`
	Headers   map[string]string `json:"headers"`
	Body      string            `json:"body"`
	Error     string            `json:"error"`
	Stack     string            `json:"stack,omitempty"`
}
