package stream

import (
	"strings"

	"github.com/aicodeswitch/aicodeswitch/internal/sse"
)

// ResponsesToMessages converts a Responses-dialect SSE stream into a
// Messages-dialect SSE stream. State is keyed by event-name substrings
// rather than a fixed enum, matching the loosely-typed event names the
// Responses dialect uses on the wire.
type ResponsesToMessages struct {
	hasMessageStart bool
	finalized       bool

	nextBlock  int
	textBlock  *int
	textDone   bool
	textClosed bool

	toolBlocks map[string]*openToolBlock
	toolOrder  []string

	usage map[string]any
}

// NewResponsesToMessages constructs a fresh transformer instance.
func NewResponsesToMessages() *ResponsesToMessages {
	return &ResponsesToMessages{toolBlocks: map[string]*openToolBlock{}}
}

func (r *ResponsesToMessages) OnEvent(ev sse.Event) []sse.Event {
	if r.finalized {
		return nil
	}

	if ev.Done {
		return r.Finalize()
	}

	payload, _ := decodeJSON(ev)

	var out []sse.Event

	switch {
	case strings.Contains(ev.Type, "response.created"):
		if !r.hasMessageStart {
			out = append(out, r.emitMessageStart(payload))
		}

	case strings.Contains(ev.Type, "output_text"):
		if strings.Contains(ev.Type, "done") {
			out = append(out, r.closeText()...)
			r.textDone = true
		} else {
			text := stringOr(payload["delta"], stringOr(payload["text"], ""))
			if text != "" {
				out = append(out, r.ensureStart()...)
				out = append(out, r.appendText(text)...)
			}
		}

	case strings.Contains(ev.Type, "tool_call") || strings.Contains(ev.Type, "function_call"):
		key := toolKey(payload)
		if strings.Contains(ev.Type, "done") {
			out = append(out, r.closeTool(key)...)
		} else {
			out = append(out, r.ensureStart()...)
			out = append(out, r.appendTool(key, payload)...)
		}

	case strings.Contains(ev.Type, "response.completed"):
		if resp, ok := asMap(payload["response"]); ok {
			if u, ok := asMap(resp["usage"]); ok {
				r.usage = u
			}
		} else if u, ok := asMap(payload["usage"]); ok {
			r.usage = u
		}
		return append(out, r.Finalize()...)
	}

	return out
}

func toolKey(payload map[string]any) string {
	if id := stringOr(payload["call_id"], stringOr(payload["id"], "")); id != "" {
		return id
	}
	return stringOr(payload["name"], "unknown")
}

// ensureStart synthesizes message_start when content arrives before (or
// without) a response.created event.
func (r *ResponsesToMessages) ensureStart() []sse.Event {
	if r.hasMessageStart {
		return nil
	}
	return []sse.Event{r.emitMessageStart(nil)}
}

func (r *ResponsesToMessages) emitMessageStart(payload map[string]any) sse.Event {
	r.hasMessageStart = true

	resp, _ := asMap(payload["response"])
	id := stringOr(resp["id"], newID("msg"))
	model := stringOr(resp["model"], "unknown")

	return jsonEvent("message_start", map[string]any{
		"type": "message_start",
		"message": map[string]any{
			"id":      id,
			"type":    "message",
			"role":    "assistant",
			"content": []any{},
			"model":   model,
			"usage":   map[string]any{"input_tokens": 0, "output_tokens": 0},
		},
	})
}

func (r *ResponsesToMessages) appendText(text string) []sse.Event {
	var out []sse.Event
	if r.textBlock == nil && !r.textDone {
		idx := r.nextBlock
		r.nextBlock++
		r.textBlock = &idx
		out = append(out, jsonEvent("content_block_start", map[string]any{
			"type":          "content_block_start",
			"index":         idx,
			"content_block": map[string]any{"type": "text", "text": ""},
		}))
	}
	if r.textBlock != nil {
		out = append(out, jsonEvent("content_block_delta", map[string]any{
			"type":  "content_block_delta",
			"index": *r.textBlock,
			"delta": map[string]any{"type": "text_delta", "text": text},
		}))
	}
	return out
}

func (r *ResponsesToMessages) closeText() []sse.Event {
	if r.textBlock == nil || r.textClosed {
		return nil
	}
	r.textClosed = true
	return []sse.Event{closeBlock(*r.textBlock)}
}

func (r *ResponsesToMessages) appendTool(key string, payload map[string]any) []sse.Event {
	var out []sse.Event

	block, exists := r.toolBlocks[key]
	if !exists {
		blockIdx := r.nextBlock
		r.nextBlock++
		block = &openToolBlock{block: blockIdx}
		r.toolBlocks[key] = block
		r.toolOrder = append(r.toolOrder, key)

		out = append(out, jsonEvent("content_block_start", map[string]any{
			"type":  "content_block_start",
			"index": blockIdx,
			"content_block": map[string]any{
				"type":  "tool_use",
				"id":    key,
				"name":  stringOr(payload["name"], ""),
				"input": map[string]any{},
			},
		}))
	}

	fragment := stringOr(payload["delta"], stringOr(payload["arguments"], ""))
	if fragment != "" {
		block.args += fragment
		out = append(out, jsonEvent("content_block_delta", map[string]any{
			"type":  "content_block_delta",
			"index": block.block,
			"delta": map[string]any{"type": "input_json_delta", "partial_json": fragment},
		}))
	}

	return out
}

func (r *ResponsesToMessages) closeTool(key string) []sse.Event {
	block, ok := r.toolBlocks[key]
	if !ok || block.closed {
		return nil
	}
	block.closed = true
	return []sse.Event{closeBlock(block.block)}
}

// Finalize closes any still-open blocks (tools in arrival order, then
// text), emits message_delta and message_stop. Idempotent.
func (r *ResponsesToMessages) Finalize() []sse.Event {
	if r.finalized {
		return nil
	}
	r.finalized = true

	var out []sse.Event

	for _, key := range r.toolOrder {
		out = append(out, r.closeTool(key)...)
	}
	out = append(out, r.closeText()...)

	out = append(out, jsonEvent("message_delta", map[string]any{
		"type":  "message_delta",
		"delta": map[string]any{"stop_reason": "end_turn", "stop_sequence": nil},
		"usage": map[string]any{
			"input_tokens":            numberOr(r.usage["input_tokens"], 0),
			"output_tokens":           numberOr(r.usage["output_tokens"], 0),
			"cache_read_input_tokens": numberOr(r.usage["cache_read_input_tokens"], 0),
		},
	}))
	out = append(out, jsonEvent("message_stop", map[string]any{"type": "message_stop"}))

	return out
}
