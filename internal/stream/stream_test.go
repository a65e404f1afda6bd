package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicodeswitch/aicodeswitch/internal/sse"
)

func dataEvent(t *testing.T, payload string) sse.Event {
	t.Helper()
	return sse.Event{Data: payload}
}

func eventTypes(events []sse.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

// TestChatToMessages_Scenario3 pins the literal end-to-end ordering from
// the "he"/"llo" streaming scenario.
func TestChatToMessages_Scenario3(t *testing.T) {
	xf := NewChatToMessages()

	var all []sse.Event
	all = append(all, xf.OnEvent(dataEvent(t, `{"choices":[{"delta":{"content":"he"}}]}`))...)
	all = append(all, xf.OnEvent(dataEvent(t, `{"choices":[{"delta":{"content":"llo"}}]}`))...)
	all = append(all, xf.OnEvent(dataEvent(t, `{"choices":[{"finish_reason":"stop"}]}`))...)
	all = append(all, xf.OnEvent(sse.Event{Done: true})...)

	types := eventTypes(all)
	require.Equal(t, []string{
		"message_start",
		"content_block_start",
		"content_block_delta",
		"content_block_delta",
		"content_block_stop",
		"message_delta",
		"message_stop",
	}, types)
}

func TestChatToMessages_FinalizeIsIdempotent(t *testing.T) {
	xf := NewChatToMessages()
	xf.OnEvent(dataEvent(t, `{"choices":[{"delta":{"content":"hi"}}]}`))

	first := xf.Finalize()
	second := xf.Finalize()

	assert.NotEmpty(t, first)
	assert.Empty(t, second)
}

func TestChatToMessages_ToolCallBlocks(t *testing.T) {
	xf := NewChatToMessages()

	events := xf.OnEvent(dataEvent(t, `{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"search","arguments":""}}]}}]}`))
	events = append(events, xf.OnEvent(dataEvent(t, `{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"q\""}}]}}]}`))...)
	events = append(events, xf.OnEvent(dataEvent(t, `{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":":\"go\"}"}}]}}]}`))...)
	events = append(events, xf.Finalize()...)

	types := eventTypes(events)
	assert.Contains(t, types, "content_block_start")
	assert.Contains(t, types, "content_block_stop")

	deltaCount := 0
	for _, e := range events {
		if e.Type == "content_block_delta" {
			deltaCount++
		}
	}
	assert.Equal(t, 2, deltaCount)
}

func TestChatToMessages_NoEventsAfterFinalize(t *testing.T) {
	xf := NewChatToMessages()
	xf.Finalize()

	events := xf.OnEvent(dataEvent(t, `{"choices":[{"delta":{"content":"late"}}]}`))
	assert.Empty(t, events)
}

func TestResponsesToMessages_BasicFlow(t *testing.T) {
	xf := NewResponsesToMessages()

	var all []sse.Event
	all = append(all, xf.OnEvent(sse.Event{Type: "response.created", Data: `{"response":{"id":"resp_1","model":"gpt"}}`})...)
	all = append(all, xf.OnEvent(sse.Event{Type: "response.output_text.delta", Data: `{"delta":"hi"}`})...)
	all = append(all, xf.OnEvent(sse.Event{Type: "response.output_text.done", Data: `{}`})...)
	all = append(all, xf.OnEvent(sse.Event{Type: "response.completed", Data: `{"response":{"usage":{"input_tokens":6,"output_tokens":1}}}`})...)

	types := eventTypes(all)
	assert.Equal(t, []string{
		"message_start",
		"content_block_start",
		"content_block_delta",
		"content_block_stop",
		"message_delta",
		"message_stop",
	}, types)
}

func TestChatToResponses_Scenario6(t *testing.T) {
	chat := NewChatToResponses()

	var all []sse.Event
	all = append(all, chat.OnEvent(dataEvent(t, `{"id":"c1","choices":[{"delta":{"content":"hi"}}]}`))...)
	all = append(all, chat.OnEvent(dataEvent(t, `{"choices":[{"finish_reason":"stop"}],"usage":{"prompt_tokens":5,"completion_tokens":1}}`))...)
	all = append(all, chat.Finalize()...)

	types := eventTypes(all)
	assert.Equal(t, "response.created", types[0])
	assert.Contains(t, types, "response.output_text.delta")
	assert.Contains(t, types, "response.output_text.done")
	assert.Equal(t, "response.completed", types[len(types)-1])
}

func TestStreamBlockBalance_OneStopPerStart(t *testing.T) {
	xf := NewChatToMessages()

	var all []sse.Event
	all = append(all, xf.OnEvent(dataEvent(t, `{"choices":[{"delta":{"content":"a"}}]}`))...)
	all = append(all, xf.OnEvent(dataEvent(t, `{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"c1","function":{"name":"f","arguments":"{}"}}]}}]}`))...)
	all = append(all, xf.Finalize()...)

	starts, stops := 0, 0
	for _, e := range all {
		switch e.Type {
		case "content_block_start":
			starts++
		case "content_block_stop":
			stops++
		}
	}
	assert.Equal(t, starts, stops)
}
