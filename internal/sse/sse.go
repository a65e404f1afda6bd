// Package sse implements a neutral Server-Sent-Events codec: parsing a byte
// stream into discrete events and serializing events back to bytes. It has
// no opinion on payload semantics — that is the job of the dialect and
// stream packages built on top of it.
package sse

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// DonePayload is the literal sentinel payload that terminates Chat and
// Responses dialect streams.
const DonePayload = "[DONE]"

// Event is a single parsed SSE frame. Done is set instead of populating
// Type/Data when the frame was the literal "[DONE]" payload.
type Event struct {
	Type string
	ID   string
	Data string
	Done bool
}

// Reader parses a byte stream into Events, one per blank-line-terminated
// block, preserving arrival order.
type Reader struct {
	scanner *bufio.Scanner
	pending bool
	cur     Event
	dataBuf []string
}

// NewReader wraps r for SSE parsing.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	return &Reader{scanner: scanner}
}

// Next returns the next parsed Event, or io.EOF once the stream and any
// trailing buffered event have been exhausted.
func (r *Reader) Next() (Event, error) {
	for r.scanner.Scan() {
		line := r.scanner.Text()

		if line == "" {
			if !r.pending {
				continue
			}
			return r.flush(), nil
		}

		r.pending = true

		switch {
		case strings.HasPrefix(line, "event:"):
			r.cur.Type = strings.TrimPrefix(strings.TrimPrefix(line, "event:"), " ")
		case strings.HasPrefix(line, "id:"):
			r.cur.ID = strings.TrimPrefix(strings.TrimPrefix(line, "id:"), " ")
		case strings.HasPrefix(line, "data:"):
			r.dataBuf = append(r.dataBuf, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		default:
			// Unrecognized field or comment line; ignore per the SSE spec.
		}
	}

	if err := r.scanner.Err(); err != nil {
		return Event{}, fmt.Errorf("sse: scan: %w", err)
	}

	if r.pending {
		return r.flush(), nil
	}

	return Event{}, io.EOF
}

func (r *Reader) flush() Event {
	data := strings.Join(r.dataBuf, "\n")

	ev := Event{Type: r.cur.Type, ID: r.cur.ID, Data: data}
	if data == DonePayload {
		ev = Event{Done: true}
	}

	r.cur = Event{}
	r.dataBuf = nil
	r.pending = false

	return ev
}

// Writer serializes Events back to bytes in the wire format the Reader
// accepts.
type Writer struct {
	w io.Writer
}

// NewWriter wraps w for SSE serialization.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteEvent serializes ev: "event:" then "id:" (if present) then "data:",
// followed by a blank line. A Done event always serializes to the literal
// "data: [DONE]\n\n".
func (w *Writer) WriteEvent(ev Event) error {
	var buf bytes.Buffer

	if ev.Done {
		buf.WriteString("data: " + DonePayload + "\n\n")
		_, err := w.w.Write(buf.Bytes())
		return err
	}

	if ev.Type != "" {
		buf.WriteString("event: " + ev.Type + "\n")
	}
	if ev.ID != "" {
		buf.WriteString("id: " + ev.ID + "\n")
	}

	for _, line := range strings.Split(ev.Data, "\n") {
		buf.WriteString("data: " + line + "\n")
	}

	buf.WriteString("\n")

	_, err := w.w.Write(buf.Bytes())
	return err
}

// WriteJSON marshals payload to JSON and writes it as the data field of an
// event with the given type and (optional) id.
func (w *Writer) WriteJSON(eventType, id string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("sse: marshal event %s: %w", eventType, err)
	}
	return w.WriteEvent(Event{Type: eventType, ID: id, Data: string(data)})
}

// AsJSON parses ev.Data as JSON into v. Callers should treat a parse
// failure as "pass the raw string through" per the codec's contract with
// non-JSON payloads, not as a hard error.
func AsJSON(ev Event, v any) error {
	return json.Unmarshal([]byte(ev.Data), v)
}
