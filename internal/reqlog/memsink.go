package reqlog

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemorySink is an in-process, mutex-guarded Sink. It exists so the proxy
// core is runnable and testable without an external log store wired up.
type MemorySink struct {
	mu          sync.Mutex
	requestLogs []RequestLog
	accessLogs  map[string]*AccessLog
	errorLogs   []ErrorLog
}

// NewMemorySink constructs an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{accessLogs: map[string]*AccessLog{}}
}

func (m *MemorySink) AppendRequestLog(_ context.Context, record RequestLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestLogs = append(m.requestLogs, record)
	return nil
}

func (m *MemorySink) AppendAccessLog(_ context.Context, record AccessLog) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	rec := record
	m.accessLogs[rec.ID] = &rec
	return rec.ID, nil
}

func (m *MemorySink) UpdateAccessLog(_ context.Context, id string, patch AccessLogPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.accessLogs[id]
	if !ok {
		return fmt.Errorf("reqlog: access log %s not found", id)
	}

	rec.StatusCode = patch.StatusCode
	rec.ResponseTimeMS = patch.ResponseTimeMS
	rec.Error = patch.Error

	return nil
}

func (m *MemorySink) AppendErrorLog(_ context.Context, record ErrorLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorLogs = append(m.errorLogs, record)
	return nil
}

// RequestLogs returns a snapshot copy of recorded request logs, for tests
// and diagnostics.
func (m *MemorySink) RequestLogs() []RequestLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RequestLog, len(m.requestLogs))
	copy(out, m.requestLogs)
	return out
}

// AccessLogs returns a snapshot copy of recorded access logs.
func (m *MemorySink) AccessLogs() []AccessLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]AccessLog, 0, len(m.accessLogs))
	for _, v := range m.accessLogs {
		out = append(out, *v)
	}
	return out
}

// ErrorLogs returns a snapshot copy of recorded error logs.
func (m *MemorySink) ErrorLogs() []ErrorLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ErrorLog, len(m.errorLogs))
	copy(out, m.errorLogs)
	return out
}
