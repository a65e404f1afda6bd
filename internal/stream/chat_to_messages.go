package stream

import (
	"sort"

	"github.com/aicodeswitch/aicodeswitch/internal/dialect"
	"github.com/aicodeswitch/aicodeswitch/internal/sse"
)

type openToolBlock struct {
	block  int
	args   string
	closed bool
}

// ChatToMessages converts a Chat-Completions-dialect SSE stream into a
// Messages-dialect SSE stream.
type ChatToMessages struct {
	hasMessageStart bool
	finalized       bool

	messageID string
	model     string

	nextBlock int

	textBlock     *int
	thinkingBlock *int
	toolBlocks    map[int]*openToolBlock

	stopReason string
	usage      map[string]any
}

// NewChatToMessages constructs a fresh transformer instance. A new
// instance must be used per request; state is not safe to reuse.
func NewChatToMessages() *ChatToMessages {
	return &ChatToMessages{toolBlocks: map[int]*openToolBlock{}}
}

// OnEvent consumes one upstream Chat SSE event and returns zero or more
// Messages-dialect events.
func (c *ChatToMessages) OnEvent(ev sse.Event) []sse.Event {
	if c.finalized {
		return nil
	}

	if ev.Done {
		return c.Finalize()
	}

	chunk, ok := decodeJSON(ev)
	if !ok {
		return nil
	}

	var out []sse.Event

	if id, ok := chunk["id"].(string); ok && c.messageID == "" {
		c.messageID = id
	}
	if model, ok := chunk["model"].(string); ok && c.model == "" {
		c.model = model
	}

	choices, _ := asSlice(chunk["choices"])
	var choice map[string]any
	if len(choices) > 0 {
		choice, _ = asMap(choices[0])
	}

	var delta map[string]any
	if choice != nil {
		delta, _ = asMap(choice["delta"])
	}

	if !c.hasMessageStart && hasNonEmptyDelta(delta) {
		out = append(out, c.emitMessageStart())
	}

	if delta != nil {
		if text, ok := delta["content"].(string); ok && text != "" {
			out = append(out, c.appendText(text)...)
		}
		if thinking, ok := asMap(delta["thinking"]); ok {
			if text, ok := thinking["content"].(string); ok && text != "" {
				out = append(out, c.appendThinking(text)...)
			}
		}
		if toolCalls, ok := asSlice(delta["tool_calls"]); ok {
			for _, item := range toolCalls {
				tc, ok := asMap(item)
				if !ok {
					continue
				}
				out = append(out, c.handleToolCallDelta(tc)...)
			}
		}
	}

	if choice != nil {
		if fr, ok := choice["finish_reason"].(string); ok && fr != "" {
			c.stopReason = dialect.ToAnthropicStopReason(fr)
		}
	}

	if usage, ok := asMap(chunk["usage"]); ok {
		c.usage = usage
	}

	return out
}

func hasNonEmptyDelta(delta map[string]any) bool {
	if delta == nil {
		return false
	}
	if s, ok := delta["content"].(string); ok && s != "" {
		return true
	}
	if t, ok := asMap(delta["thinking"]); ok {
		if s, ok := t["content"].(string); ok && s != "" {
			return true
		}
	}
	if tc, ok := asSlice(delta["tool_calls"]); ok && len(tc) > 0 {
		return true
	}
	return false
}

func (c *ChatToMessages) emitMessageStart() sse.Event {
	c.hasMessageStart = true

	id := c.messageID
	if id == "" {
		id = newID("msg")
	}
	model := c.model
	if model == "" {
		model = "unknown"
	}

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

func (c *ChatToMessages) appendText(text string) []sse.Event {
	var out []sse.Event
	if c.textBlock == nil {
		idx := c.nextBlock
		c.nextBlock++
		c.textBlock = &idx
		out = append(out, jsonEvent("content_block_start", map[string]any{
			"type":          "content_block_start",
			"index":         idx,
			"content_block": map[string]any{"type": "text", "text": ""},
		}))
	}
	out = append(out, jsonEvent("content_block_delta", map[string]any{
		"type":  "content_block_delta",
		"index": *c.textBlock,
		"delta": map[string]any{"type": "text_delta", "text": text},
	}))
	return out
}

func (c *ChatToMessages) appendThinking(text string) []sse.Event {
	var out []sse.Event
	if c.thinkingBlock == nil {
		idx := c.nextBlock
		c.nextBlock++
		c.thinkingBlock = &idx
		out = append(out, jsonEvent("content_block_start", map[string]any{
			"type":          "content_block_start",
			"index":         idx,
			"content_block": map[string]any{"type": "thinking", "thinking": ""},
		}))
	}
	out = append(out, jsonEvent("content_block_delta", map[string]any{
		"type":  "content_block_delta",
		"index": *c.thinkingBlock,
		"delta": map[string]any{"type": "thinking_delta", "thinking": text},
	}))
	return out
}

func (c *ChatToMessages) handleToolCallDelta(tc map[string]any) []sse.Event {
	idx := int(numberOr(tc["index"], 0))

	var out []sse.Event

	block, exists := c.toolBlocks[idx]
	id, hasID := tc["id"].(string)
	fn, _ := asMap(tc["function"])
	name, hasName := fn["name"].(string)

	if !exists && hasID && hasName {
		blockIdx := c.nextBlock
		c.nextBlock++
		block = &openToolBlock{block: blockIdx}
		c.toolBlocks[idx] = block

		out = append(out, jsonEvent("content_block_start", map[string]any{
			"type":  "content_block_start",
			"index": blockIdx,
			"content_block": map[string]any{
				"type":  "tool_use",
				"id":    id,
				"name":  name,
				"input": map[string]any{},
			},
		}))
	}

	if block == nil {
		return out
	}

	if fragment, ok := fn["arguments"].(string); ok && fragment != "" {
		block.args += fragment
		out = append(out, jsonEvent("content_block_delta", map[string]any{
			"type":  "content_block_delta",
			"index": block.block,
			"delta": map[string]any{"type": "input_json_delta", "partial_json": fragment},
		}))
	}

	return out
}

// Finalize closes every open block (tool blocks first, ordered by their
// Chat tool-call index, then thinking, then text), emits message_delta with the final
// stop_reason and usage, then message_stop. Idempotent: only the first
// call produces events.
func (c *ChatToMessages) Finalize() []sse.Event {
	if c.finalized {
		return nil
	}
	c.finalized = true

	var out []sse.Event

	toolIndexes := make([]int, 0, len(c.toolBlocks))
	for k := range c.toolBlocks {
		toolIndexes = append(toolIndexes, k)
	}
	sort.Ints(toolIndexes)
	for _, k := range toolIndexes {
		out = append(out, closeBlock(c.toolBlocks[k].block))
	}
	if c.thinkingBlock != nil {
		out = append(out, closeBlock(*c.thinkingBlock))
	}
	if c.textBlock != nil {
		out = append(out, closeBlock(*c.textBlock))
	}

	stopReason := c.stopReason
	if stopReason == "" {
		stopReason = "end_turn"
	}

	out = append(out, jsonEvent("message_delta", map[string]any{
		"type":  "message_delta",
		"delta": map[string]any{"stop_reason": stopReason, "stop_sequence": nil},
		"usage": dialect.ChatUsageToMessages(c.usage),
	}))
	out = append(out, jsonEvent("message_stop", map[string]any{"type": "message_stop"}))

	return out
}

func closeBlock(index int) sse.Event {
	return jsonEvent("content_block_stop", map[string]any{"type": "content_block_stop", "index": index})
}
