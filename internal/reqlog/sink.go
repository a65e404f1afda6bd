package reqlog

import "context"

// Sink is the write interface the Proxy Engine emits log records through.
// A production deployment implements this against its own persistence;
// MemorySink (memsink.go) is the illustrative standalone default.
type Sink interface {
	AppendRequestLog(ctx context.Context, record RequestLog) error
	AppendAccessLog(ctx context.Context, record AccessLog) (string, error)
	UpdateAccessLog(ctx context.Context, id string, patch AccessLogPatch) error
	AppendErrorLog(ctx context.Context, record ErrorLog) error
}
