package dialect

// ResponsesRequestToChat converts a Responses-dialect request body into a
// Chat-Completions-dialect request body. Used when a Codex-shaped client
// targets a Chat-only upstream.
func ResponsesRequestToChat(req map[string]any) map[string]any {
	out := map[string]any{}
	var messages []any

	if instructions := stringOr(req["instructions"], ""); instructions != "" {
		messages = append(messages, map[string]any{"role": "system", "content": instructions})
	}

	if input, ok := asSlice(req["input"]); ok {
		for _, item := range input {
			entry, ok := asMap(item)
			if !ok {
				continue
			}
			role := stringOr(entry["role"], "user")
			text := flattenTextContent(entry["content"])
			if text == "" {
				text = stringOr(entry["text"], "")
			}
			if text != "" {
				messages = append(messages, map[string]any{"role": role, "content": text})
			}
		}
	}

	out["messages"] = messages

	for _, k := range []string{"temperature", "top_p", "model", "stream"} {
		if v, ok := req[k]; ok {
			out[k] = v
		}
	}
	if v, ok := req["max_output_tokens"]; ok {
		out["max_tokens"] = v
	}
	if tools, ok := asSlice(req["tools"]); ok {
		out["tools"] = tools
	}

	return out
}
