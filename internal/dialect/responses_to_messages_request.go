package dialect

// ResponsesRequestToMessages converts a Responses-dialect request body
// (input[]/instructions) into a Messages-dialect request body
// (messages[]/system). Used when a Codex-shaped client targets a
// claude-family upstream.
func ResponsesRequestToMessages(req map[string]any) map[string]any {
	out := map[string]any{}

	if instructions := stringOr(req["instructions"], ""); instructions != "" {
		out["system"] = instructions
	}

	var messages []any
	if input, ok := asSlice(req["input"]); ok {
		for _, item := range input {
			entry, ok := asMap(item)
			if !ok {
				continue
			}
			role := stringOr(entry["role"], "user")
			messages = append(messages, map[string]any{
				"role":    role,
				"content": responsesContentToMessagesBlocks(entry["content"]),
			})
		}
	}
	out["messages"] = messages

	if v, ok := req["max_output_tokens"]; ok {
		out["max_tokens"] = v
	}
	for _, k := range []string{"temperature", "top_p", "model", "stream"} {
		if v, ok := req[k]; ok {
			out[k] = v
		}
	}
	if tools, ok := asSlice(req["tools"]); ok {
		out["tools"] = responsesToolsToMessages(tools)
	}

	return out
}

func responsesContentToMessagesBlocks(content any) []any {
	blocks, ok := asSlice(content)
	if !ok {
		if s, ok := asString(content); ok {
			return []any{map[string]any{"type": "text", "text": s}}
		}
		return []any{}
	}

	var out []any
	for _, item := range blocks {
		block, ok := asMap(item)
		if !ok {
			continue
		}
		switch stringOr(block["type"], "") {
		case "input_text", "output_text":
			out = append(out, map[string]any{"type": "text", "text": stringOr(block["text"], "")})
		case "input_image":
			out = append(out, map[string]any{
				"type":   "image",
				"source": map[string]any{"type": "url", "url": stringOr(block["image_url"], "")},
			})
		}
	}
	return out
}

func responsesToolsToMessages(tools []any) []any {
	out := make([]any, 0, len(tools))
	for _, item := range tools {
		t, ok := asMap(item)
		if !ok {
			continue
		}
		fn, _ := asMap(t["function"])
		if fn == nil {
			fn = t
		}
		out = append(out, map[string]any{
			"name":         stringOr(fn["name"], ""),
			"description":  stringOr(fn["description"], ""),
			"input_schema": fn["parameters"],
		})
	}
	return out
}
