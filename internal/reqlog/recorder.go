package reqlog

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Recorder scopes log finalization to a single request. The success path
// and the error path both call Finalize; a one-shot guard ensures only the
// first caller actually writes, matching the idempotent finalization the
// engine requires when a streaming response can fail after headers are
// already sent.
type Recorder struct {
	sink           Sink
	loggingEnabled bool

	once     sync.Once
	accessID string
}

// NewRecorder constructs a per-request Recorder.
func NewRecorder(sink Sink, loggingEnabled bool) *Recorder {
	return &Recorder{sink: sink, loggingEnabled: loggingEnabled}
}

// StartAccessLog appends the access-log entry at request start time.
// Access logs are recorded unconditionally, independent of loggingEnabled.
func (r *Recorder) StartAccessLog(ctx context.Context, method, path, remoteAddr, userAgent string) {
	id, err := r.sink.AppendAccessLog(ctx, AccessLog{
		Timestamp:  time.Now(),
		Method:     method,
		Path:       path,
		RemoteAddr: remoteAddr,
		UserAgent:  userAgent,
	})
	if err == nil {
		r.accessID = id
	}
}

// Finalize writes the RequestLog (if logging is enabled and the path is a
// core proxy path), the ErrorLog (if errLog is non-nil), and updates the
// access log — exactly once, regardless of how many times Finalize is
// called.
func (r *Recorder) Finalize(ctx context.Context, req RequestLog, access AccessLogPatch, errLog *ErrorLog) {
	r.once.Do(func() {
		if r.loggingEnabled && isCorePath(req.Path) {
			_ = r.sink.AppendRequestLog(ctx, req)
		}
		if errLog != nil {
			_ = r.sink.AppendErrorLog(ctx, *errLog)
		}
		if r.accessID != "" {
			_ = r.sink.UpdateAccessLog(ctx, r.accessID, access)
		}
	})
}

func isCorePath(path string) bool {
	return strings.HasPrefix(path, "/claude-code/") || strings.HasPrefix(path, "/codex/")
}
