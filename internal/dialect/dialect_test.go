package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicodeswitch/aicodeswitch/internal/config"
)

func TestToAnthropicStopReason_Table(t *testing.T) {
	cases := map[string]string{
		"stop":           "end_turn",
		"length":         "max_tokens",
		"tool_calls":     "tool_use",
		"content_filter": "end_turn",
		"":               "end_turn",
		"something_else": "end_turn",
	}
	for reason, want := range cases {
		assert.Equal(t, want, ToAnthropicStopReason(reason), reason)
	}
}

func TestMessagesRequestToChat_SystemBecomesSystemMessage(t *testing.T) {
	req := map[string]any{
		"system": "be helpful",
		"messages": []any{
			map[string]any{"role": "user", "content": "hi"},
		},
	}
	out := MessagesRequestToChat(req, config.SourceOpenAIChat)

	msgs, ok := out["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)

	first := msgs[0].(map[string]any)
	assert.Equal(t, "system", first["role"])
	assert.Equal(t, "be helpful", first["content"])
}

func TestMessagesRequestToChat_DeepSeekSystemBecomesDeveloper(t *testing.T) {
	req := map[string]any{
		"system":   "be helpful",
		"messages": []any{},
	}
	out := MessagesRequestToChat(req, config.SourceDeepSeekChat)

	msgs := out["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "developer", msgs[0].(map[string]any)["role"])
}

func TestMessagesRequestToChat_ToolUseBecomesToolCalls(t *testing.T) {
	req := map[string]any{
		"messages": []any{
			map[string]any{
				"role": "assistant",
				"content": []any{
					map[string]any{"type": "tool_use", "id": "toolu_1", "name": "search", "input": map[string]any{"q": "go"}},
				},
			},
		},
	}
	out := MessagesRequestToChat(req, config.SourceOpenAIChat)
	msgs := out["messages"].([]any)
	require.Len(t, msgs, 1)

	msg := msgs[0].(map[string]any)
	toolCalls := msg["tool_calls"].([]any)
	require.Len(t, toolCalls, 1)
	fn := toolCalls[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "search", fn["name"])
	assert.JSONEq(t, `{"q":"go"}`, fn["arguments"].(string))
}

func TestMessagesRequestToChat_ToolResultBecomesToolMessage(t *testing.T) {
	req := map[string]any{
		"messages": []any{
			map[string]any{
				"role": "user",
				"content": []any{
					map[string]any{"type": "tool_result", "tool_use_id": "toolu_1", "content": "42"},
				},
			},
		},
	}
	out := MessagesRequestToChat(req, config.SourceOpenAIChat)
	msgs := out["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "tool", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "toolu_1", msgs[0].(map[string]any)["tool_call_id"])
}

func TestMessagesRequestToChat_StreamSetsIncludeUsage(t *testing.T) {
	req := map[string]any{"messages": []any{}, "stream": true}
	out := MessagesRequestToChat(req, config.SourceOpenAIChat)
	opts := out["stream_options"].(map[string]any)
	assert.Equal(t, true, opts["include_usage"])
}

func TestChatResponseToMessages_Scenario2(t *testing.T) {
	resp := map[string]any{
		"choices": []any{
			map[string]any{
				"message":       map[string]any{"role": "assistant", "content": "hello"},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{"prompt_tokens": float64(5), "completion_tokens": float64(2)},
	}

	out := ChatResponseToMessages(resp)

	assert.Equal(t, "message", out["type"])
	assert.Equal(t, "assistant", out["role"])
	assert.Equal(t, "end_turn", out["stop_reason"])

	content := out["content"].([]any)
	require.Len(t, content, 1)
	assert.Equal(t, "text", content[0].(map[string]any)["type"])
	assert.Equal(t, "hello", content[0].(map[string]any)["text"])

	usage := out["usage"].(map[string]any)
	assert.Equal(t, float64(5), usage["input_tokens"])
	assert.Equal(t, float64(2), usage["output_tokens"])
	assert.Equal(t, float64(0), usage["cache_read_input_tokens"])
}

func TestMessagesResponseToResponses_CacheInclusiveInputTokens(t *testing.T) {
	resp := map[string]any{
		"content": []any{
			map[string]any{"type": "text", "text": "hi"},
		},
		"usage": map[string]any{
			"input_tokens":            float64(10),
			"output_tokens":           float64(3),
			"cache_read_input_tokens": float64(4),
		},
	}

	out := MessagesResponseToResponses(resp)
	usage := out["usage"].(map[string]any)
	assert.Equal(t, float64(14), usage["input_tokens"])
	assert.Equal(t, float64(3), usage["output_tokens"])
}

func TestResponsesResponseToMessages_ToolCall(t *testing.T) {
	resp := map[string]any{
		"output": []any{
			map[string]any{"type": "function_call", "call_id": "call_1", "name": "search", "arguments": `{"q":"go"}`},
		},
		"usage": map[string]any{"input_tokens": float64(6), "output_tokens": float64(1)},
	}

	out := ResponsesResponseToMessages(resp)
	content := out["content"].([]any)
	require.Len(t, content, 1)
	block := content[0].(map[string]any)
	assert.Equal(t, "tool_use", block["type"])
	assert.Equal(t, "call_1", block["id"])
	input := block["input"].(map[string]any)
	assert.Equal(t, "go", input["q"])
}

func TestResponsesRequestToChat_InstructionsBecomeSystemMessage(t *testing.T) {
	req := map[string]any{
		"instructions":      "be terse",
		"max_output_tokens": float64(100),
		"input": []any{
			map[string]any{"role": "user", "content": []any{map[string]any{"type": "input_text", "text": "hi"}}},
		},
	}

	out := ResponsesRequestToChat(req)
	msgs := out["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, float64(100), out["max_tokens"])
}
