package stream

import (
	"github.com/aicodeswitch/aicodeswitch/internal/sse"
)

type responsesBlock struct {
	kind string // "text" or "tool_use"
	id   string
	name string
	text string
	args string
}

// MessagesToResponses converts a Messages-dialect SSE stream into a
// Responses-dialect SSE stream.
type MessagesToResponses struct {
	started   bool
	finalized bool

	responseID string
	model      string

	blocks map[int]*responsesBlock
	order  []int

	usage map[string]any
}

// NewMessagesToResponses constructs a fresh transformer instance.
func NewMessagesToResponses() *MessagesToResponses {
	return &MessagesToResponses{blocks: map[int]*responsesBlock{}}
}

func (m *MessagesToResponses) OnEvent(ev sse.Event) []sse.Event {
	if m.finalized {
		return nil
	}

	if ev.Done {
		return m.Finalize()
	}

	payload, _ := decodeJSON(ev)

	switch ev.Type {
	case "message_start":
		return m.handleMessageStart(payload)
	case "content_block_start":
		return m.handleBlockStart(payload)
	case "content_block_delta":
		return m.handleBlockDelta(payload)
	case "content_block_stop":
		return m.handleBlockStop(payload)
	case "message_delta":
		m.handleMessageDelta(payload)
		return nil
	case "message_stop":
		return m.Finalize()
	default:
		return nil
	}
}

func (m *MessagesToResponses) handleMessageStart(payload map[string]any) []sse.Event {
	if m.started {
		return nil
	}
	m.started = true

	message, _ := asMap(payload["message"])
	m.responseID = stringOr(message["id"], newID("resp"))
	m.model = stringOr(message["model"], "unknown")

	return []sse.Event{jsonEvent("response.created", map[string]any{
		"type": "response.created",
		"response": map[string]any{
			"id":     m.responseID,
			"model":  m.model,
			"status": "in_progress",
			"output": []any{},
		},
	})}
}

func (m *MessagesToResponses) handleBlockStart(payload map[string]any) []sse.Event {
	index := int(numberOr(payload["index"], 0))
	block, _ := asMap(payload["content_block"])
	kind := stringOr(block["type"], "text")

	b := &responsesBlock{kind: kind}
	if kind == "tool_use" {
		b.id = stringOr(block["id"], "")
		b.name = stringOr(block["name"], "")
	}

	m.blocks[index] = b
	m.order = append(m.order, index)

	return nil
}

func (m *MessagesToResponses) handleBlockDelta(payload map[string]any) []sse.Event {
	index := int(numberOr(payload["index"], 0))
	block, ok := m.blocks[index]
	if !ok {
		return nil
	}

	delta, _ := asMap(payload["delta"])

	switch stringOr(delta["type"], "") {
	case "text_delta":
		text := stringOr(delta["text"], "")
		block.text += text
		return []sse.Event{jsonEvent("response.output_text.delta", map[string]any{
			"type":  "response.output_text.delta",
			"delta": text,
		})}
	case "input_json_delta":
		fragment := stringOr(delta["partial_json"], "")
		block.args += fragment
		return []sse.Event{jsonEvent("response.output_tool_call.delta", map[string]any{
			"type":  "response.output_tool_call.delta",
			"name":  block.name,
			"delta": fragment,
		})}
	default:
		return nil
	}
}

func (m *MessagesToResponses) handleBlockStop(payload map[string]any) []sse.Event {
	index := int(numberOr(payload["index"], 0))
	block, ok := m.blocks[index]
	if !ok {
		return nil
	}

	if block.kind == "tool_use" {
		return []sse.Event{jsonEvent("response.output_tool_call.done", map[string]any{
			"type": "response.output_tool_call.done",
			"name": block.name,
		})}
	}
	return []sse.Event{jsonEvent("response.output_text.done", map[string]any{
		"type": "response.output_text.done",
	})}
}

func (m *MessagesToResponses) handleMessageDelta(payload map[string]any) {
	if u, ok := asMap(payload["usage"]); ok {
		m.usage = u
	}
}

// Finalize emits the terminal response.completed carrying the full output
// array and usage, with input_tokens = input_tokens + cache_read_input_tokens
// per the cache-inclusive quirk preserved from the non-stream transformer.
func (m *MessagesToResponses) Finalize() []sse.Event {
	if m.finalized {
		return nil
	}
	m.finalized = true

	var output []any
	for _, idx := range m.order {
		block := m.blocks[idx]
		switch block.kind {
		case "tool_use":
			output = append(output, map[string]any{
				"type":      "tool_call",
				"call_id":   block.id,
				"name":      block.name,
				"arguments": block.args,
			})
		default:
			if block.text != "" {
				output = append(output, map[string]any{
					"type": "message",
					"role": "assistant",
					"content": []any{
						map[string]any{"type": "output_text", "text": block.text},
					},
				})
			}
		}
	}
	if output == nil {
		output = []any{}
	}

	input := numberOr(m.usage["input_tokens"], 0)
	cacheRead := numberOr(m.usage["cache_read_input_tokens"], 0)

	return []sse.Event{jsonEvent("response.completed", map[string]any{
		"type": "response.completed",
		"response": map[string]any{
			"id":     m.responseID,
			"model":  m.model,
			"status": "completed",
			"output": output,
			"usage": map[string]any{
				"input_tokens":            input + cacheRead,
				"output_tokens":           numberOr(m.usage["output_tokens"], 0),
				"cache_read_input_tokens": cacheRead,
			},
		},
	})}
}
