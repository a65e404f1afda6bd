package reqlog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_FinalizeIsIdempotent(t *testing.T) {
	sink := NewMemorySink()
	rec := NewRecorder(sink, true)
	rec.StartAccessLog(context.Background(), "POST", "/claude-code/v1/messages", "127.0.0.1", "test-agent")

	rec.Finalize(context.Background(), RequestLog{Path: "/claude-code/v1/messages", StatusCode: 200}, AccessLogPatch{StatusCode: 200}, nil)
	rec.Finalize(context.Background(), RequestLog{Path: "/claude-code/v1/messages", StatusCode: 500}, AccessLogPatch{StatusCode: 500}, nil)

	logs := sink.RequestLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, 200, logs[0].StatusCode)
}

func TestRecorder_SkipsRequestLogWhenLoggingDisabled(t *testing.T) {
	sink := NewMemorySink()
	rec := NewRecorder(sink, false)

	rec.Finalize(context.Background(), RequestLog{Path: "/claude-code/v1/messages"}, AccessLogPatch{}, nil)

	assert.Empty(t, sink.RequestLogs())
}

func TestRecorder_SkipsRequestLogForNonCorePath(t *testing.T) {
	sink := NewMemorySink()
	rec := NewRecorder(sink, true)

	rec.Finalize(context.Background(), RequestLog{Path: "/health"}, AccessLogPatch{}, nil)

	assert.Empty(t, sink.RequestLogs())
}

func TestRecorder_ErrorLogWrittenRegardlessOfLoggingFlag(t *testing.T) {
	sink := NewMemorySink()
	rec := NewRecorder(sink, false)

	rec.Finalize(context.Background(), RequestLog{Path: "/claude-code/v1/messages"}, AccessLogPatch{StatusCode: 500, Error: "boom"}, &ErrorLog{Error: "boom"})

	assert.Len(t, sink.ErrorLogs(), 1)
}

func TestRecorder_AccessLogAlwaysUpdated(t *testing.T) {
	sink := NewMemorySink()
	rec := NewRecorder(sink, false)
	rec.StartAccessLog(context.Background(), "GET", "/health", "127.0.0.1", "curl")

	rec.Finalize(context.Background(), RequestLog{Path: "/health"}, AccessLogPatch{StatusCode: 200, ResponseTimeMS: 5}, nil)

	logs := sink.AccessLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, 200, logs[0].StatusCode)
	assert.EqualValues(t, 5, logs[0].ResponseTimeMS)
}
