package dialect

// MessagesRequestToResponses converts a Messages-dialect request body into
// a Responses-dialect request body.
func MessagesRequestToResponses(req map[string]any) map[string]any {
	out := map[string]any{}

	var input []any
	if msgs, ok := asSlice(req["messages"]); ok {
		for _, m := range msgs {
			msg, ok := asMap(m)
			if !ok {
				continue
			}
			role := stringOr(msg["role"], "user")
			input = append(input, messageContentToResponsesInput(role, msg["content"])...)
		}
	}
	out["input"] = input

	if sys, ok := req["system"]; ok {
		if text := flattenTextContent(sys); text != "" {
			out["instructions"] = text
		}
	}

	if v, ok := req["max_tokens"]; ok {
		out["max_output_tokens"] = v
	}
	for _, k := range []string{"temperature", "top_p", "model", "stream"} {
		if v, ok := req[k]; ok {
			out[k] = v
		}
	}
	if tools, ok := asSlice(req["tools"]); ok {
		out["tools"] = messagesToolsToResponses(tools)
	}

	return out
}

func messageContentToResponsesInput(role string, content any) []any {
	text, ok := asString(content)
	if ok {
		return []any{map[string]any{
			"role":    role,
			"content": []any{map[string]any{"type": textTypeFor(role), "text": text}},
		}}
	}

	blocks, ok := asSlice(content)
	if !ok {
		return nil
	}

	var parts []any
	var out []any

	for _, item := range blocks {
		block, ok := asMap(item)
		if !ok {
			continue
		}
		switch stringOr(block["type"], "") {
		case "text":
			parts = append(parts, map[string]any{"type": textTypeFor(role), "text": stringOr(block["text"], "")})
		case "image", "image_url", "input_image":
			parts = append(parts, map[string]any{"type": "input_image", "image_url": imageURLOf(block)})
		case "tool_use":
			out = append(out, map[string]any{
				"type":      "function_call",
				"call_id":   stringOr(block["id"], ""),
				"name":      stringOr(block["name"], ""),
				"arguments": toJSONString(block["input"]),
			})
		case "tool_result":
			out = append(out, map[string]any{
				"type":    "function_call_output",
				"call_id": stringOr(block["tool_use_id"], ""),
				"output":  flattenTextContent(block["content"]),
			})
		}
	}

	if len(parts) > 0 {
		out = append([]any{map[string]any{"role": role, "content": parts}}, out...)
	}

	return out
}

func textTypeFor(role string) string {
	if role == "assistant" {
		return "output_text"
	}
	return "input_text"
}

func messagesToolsToResponses(tools []any) []any {
	out := make([]any, 0, len(tools))
	for _, item := range tools {
		t, ok := asMap(item)
		if !ok {
			continue
		}
		out = append(out, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        stringOr(t["name"], ""),
				"description": stringOr(t["description"], ""),
				"parameters":  t["input_schema"],
			},
		})
	}
	return out
}

// MessagesResponseToResponses converts a Messages-dialect (non-stream)
// response body into a Responses-dialect response body. Text blocks
// concatenate into a single message/output_text item; tool_use blocks
// become tool_call items with stringified arguments. usage.input_tokens is
// sent as input_tokens + cache_read_input_tokens — an intentional
// cache-inclusive quirk, preserved for downstream billing consistency.
func MessagesResponseToResponses(resp map[string]any) map[string]any {
	out := map[string]any{}

	var text string
	var toolCalls []any

	if content, ok := asSlice(resp["content"]); ok {
		for _, item := range content {
			block, ok := asMap(item)
			if !ok {
				continue
			}
			switch stringOr(block["type"], "") {
			case "text":
				text += stringOr(block["text"], "")
			case "tool_use":
				toolCalls = append(toolCalls, map[string]any{
					"type":      "tool_call",
					"call_id":   stringOr(block["id"], ""),
					"name":      stringOr(block["name"], ""),
					"arguments": toJSONString(block["input"]),
				})
			}
		}
	}

	var output []any
	if text != "" {
		output = append(output, map[string]any{
			"type": "message",
			"role": "assistant",
			"content": []any{
				map[string]any{"type": "output_text", "text": text},
			},
		})
	}
	output = append(output, toolCalls...)

	out["output"] = output
	out["usage"] = messagesUsageToResponses(resp["usage"])

	if model, ok := resp["model"]; ok {
		out["model"] = model
	}
	if id, ok := resp["id"]; ok {
		out["id"] = id
	}

	return out
}

func messagesUsageToResponses(usage any) map[string]any {
	u, _ := asMap(usage)
	input := numberOr(u["input_tokens"], 0)
	cacheRead := numberOr(u["cache_read_input_tokens"], 0)

	return map[string]any{
		"input_tokens":            input + cacheRead,
		"output_tokens":           numberOr(u["output_tokens"], 0),
		"cache_read_input_tokens": cacheRead,
	}
}
