package dialect

// ChatResponseToMessages converts a Chat-Completions-dialect (non-stream)
// response body into a Messages-dialect response body.
func ChatResponseToMessages(resp map[string]any) map[string]any {
	out := map[string]any{
		"type": "message",
		"role": "assistant",
	}

	choices, _ := asSlice(resp["choices"])
	var choice map[string]any
	if len(choices) > 0 {
		choice, _ = asMap(choices[0])
	}

	var content []any
	finishReason := ""

	if choice != nil {
		finishReason = stringOr(choice["finish_reason"], "")

		if message, ok := asMap(choice["message"]); ok {
			content = append(content, messageToMessagesContent(message)...)
		}
	}

	if len(content) == 0 {
		content = []any{}
	}

	out["content"] = content
	out["stop_reason"] = ToAnthropicStopReason(finishReason)
	out["usage"] = ChatUsageToMessages(resp["usage"])

	if model, ok := resp["model"]; ok {
		out["model"] = model
	}
	if id, ok := resp["id"]; ok {
		out["id"] = id
	}

	return out
}

func messageToMessagesContent(message map[string]any) []any {
	var content []any

	if text := stringOr(message["content"], ""); text != "" {
		content = append(content, map[string]any{"type": "text", "text": text})
	}

	if toolCalls, ok := asSlice(message["tool_calls"]); ok {
		for _, item := range toolCalls {
			tc, ok := asMap(item)
			if !ok {
				continue
			}
			fn, _ := asMap(tc["function"])
			args := stringOr(fn["arguments"], "")
			content = append(content, map[string]any{
				"type":  "tool_use",
				"id":    stringOr(tc["id"], ""),
				"name":  stringOr(fn["name"], ""),
				"input": parseJSONOrString(args),
			})
		}
	}

	return content
}

// ChatUsageToMessages maps a Chat-dialect usage object to the Messages
// dialect's {input_tokens, output_tokens, cache_read_input_tokens} shape.
func ChatUsageToMessages(usage any) map[string]any {
	u, _ := asMap(usage)

	cacheRead := float64(0)
	if details, ok := asMap(u["prompt_tokens_details"]); ok {
		if c, ok := details["cached_tokens"].(float64); ok {
			cacheRead = c
		}
	}

	return map[string]any{
		"input_tokens":            numberOr(u["prompt_tokens"], 0),
		"output_tokens":           numberOr(u["completion_tokens"], 0),
		"cache_read_input_tokens": cacheRead,
	}
}

func numberOr(v any, fallback float64) float64 {
	if n, ok := v.(float64); ok {
		return n
	}
	return fallback
}
