// Package stream implements the stateful stream transformers that convert
// a sequence of parsed SSE events in one dialect into a sequence of parsed
// SSE events in another. Each transformer is an explicit state object with
// OnEvent(ev) []Event and Finalize() []Event methods, cooperative and
// single-threaded: no suspension, driven entirely by event arrival.
// Chained conversions (Chat→Responses) compose two transformers by piping
// one's output into the other's OnEvent, rather than a bespoke combined
// machine.
package stream

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/aicodeswitch/aicodeswitch/internal/sse"
)

// Transformer is the shape every stream transformer in this package
// implements: a cooperative state machine driven one event at a time.
type Transformer interface {
	OnEvent(ev sse.Event) []sse.Event
	Finalize() []sse.Event
}

func decodeJSON(ev sse.Event) (map[string]any, bool) {
	var v map[string]any
	if err := json.Unmarshal([]byte(ev.Data), &v); err != nil {
		return nil, false
	}
	return v, true
}

func jsonEvent(eventType string, payload any) sse.Event {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte("{}")
	}
	return sse.Event{Type: eventType, Data: string(data)}
}

func newID(prefix string) string {
	return prefix + "_" + uuid.New().String()
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fallback
}

func numberOr(v any, fallback float64) float64 {
	if n, ok := v.(float64); ok {
		return n
	}
	return fallback
}
