package sse

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r *Reader) []Event {
	t.Helper()

	var events []Event
	for {
		ev, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		events = append(events, ev)
	}
	return events
}

func TestReader_ParsesFields(t *testing.T) {
	raw := "event: message_start\nid: evt-1\ndata: {\"a\":1}\n\n"
	r := NewReader(bytes.NewBufferString(raw))

	events := readAll(t, r)
	require.Len(t, events, 1)
	assert.Equal(t, "message_start", events[0].Type)
	assert.Equal(t, "evt-1", events[0].ID)
	assert.Equal(t, `{"a":1}`, events[0].Data)
	assert.False(t, events[0].Done)
}

func TestReader_MultipleDataLinesJoinWithNewline(t *testing.T) {
	raw := "data: line1\ndata: line2\n\n"
	r := NewReader(bytes.NewBufferString(raw))

	events := readAll(t, r)
	require.Len(t, events, 1)
	assert.Equal(t, "line1\nline2", events[0].Data)
}

func TestReader_DoneSentinel(t *testing.T) {
	raw := "data: [DONE]\n\n"
	r := NewReader(bytes.NewBufferString(raw))

	events := readAll(t, r)
	require.Len(t, events, 1)
	assert.True(t, events[0].Done)
}

func TestReader_FlushesTrailingEventWithoutBlankLine(t *testing.T) {
	raw := "event: x\ndata: y"
	r := NewReader(bytes.NewBufferString(raw))

	events := readAll(t, r)
	require.Len(t, events, 1)
	assert.Equal(t, "x", events[0].Type)
	assert.Equal(t, "y", events[0].Data)
}

func TestWriter_RoundTrip(t *testing.T) {
	events := []Event{
		{Type: "message_start", ID: "1", Data: `{"x":1}`},
		{Type: "content_block_delta", Data: "line1\nline2"},
		{Done: true},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, ev := range events {
		require.NoError(t, w.WriteEvent(ev))
	}

	r := NewReader(&buf)
	got := readAll(t, r)

	require.Len(t, got, len(events))
	for i, ev := range events {
		assert.Equal(t, ev.Type, got[i].Type)
		assert.Equal(t, ev.ID, got[i].ID)
		assert.Equal(t, ev.Data, got[i].Data)
		assert.Equal(t, ev.Done, got[i].Done)
	}
}

func TestWriter_DoneSerializesToLiteral(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).WriteEvent(Event{Done: true}))
	assert.Equal(t, "data: [DONE]\n\n", buf.String())
}

func TestWriter_WriteJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteJSON("message_start", "id-1", map[string]any{"type": "message"}))

	r := NewReader(&buf)
	ev, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "message_start", ev.Type)
	assert.Equal(t, "id-1", ev.ID)

	var decoded map[string]any
	require.NoError(t, AsJSON(ev, &decoded))
	assert.Equal(t, "message", decoded["type"])
}
