package dialect

// ResponsesResponseToMessages converts a Responses-dialect (non-stream)
// response body into a Messages-dialect response body.
func ResponsesResponseToMessages(resp map[string]any) map[string]any {
	out := map[string]any{
		"type": "message",
		"role": "assistant",
	}

	var content []any
	if output, ok := asSlice(resp["output"]); ok {
		for _, item := range output {
			block, ok := asMap(item)
			if !ok {
				continue
			}
			content = append(content, responsesOutputItemToMessages(block)...)
		}
	}
	if len(content) == 0 {
		content = []any{}
	}

	out["content"] = content
	out["stop_reason"] = "end_turn"
	out["usage"] = responsesUsageToMessages(resp["usage"])

	if model, ok := resp["model"]; ok {
		out["model"] = model
	}
	if id, ok := resp["id"]; ok {
		out["id"] = id
	}

	return out
}

func responsesOutputItemToMessages(item map[string]any) []any {
	switch stringOr(item["type"], "") {
	case "message":
		var blocks []any
		if content, ok := asSlice(item["content"]); ok {
			for _, c := range content {
				cb, ok := asMap(c)
				if !ok {
					continue
				}
				if t := stringOr(cb["text"], ""); t != "" {
					blocks = append(blocks, map[string]any{"type": "text", "text": t})
				}
			}
		}
		return blocks
	case "output_text":
		return []any{map[string]any{"type": "text", "text": stringOr(item["text"], "")}}
	case "tool_call", "function_call":
		args := item["arguments"]
		var parsed any = map[string]any{}
		if s, ok := asString(args); ok {
			parsed = parseJSONOrString(s)
		} else if args != nil {
			parsed = args
		}
		id := stringOr(item["call_id"], stringOr(item["id"], ""))
		return []any{map[string]any{
			"type":  "tool_use",
			"id":    id,
			"name":  stringOr(item["name"], ""),
			"input": parsed,
		}}
	default:
		return nil
	}
}

// ResponsesUsageToMessages normalizes a Responses-dialect usage object into
// Messages-dialect field names. Exported for the proxy engine's stream
// usage fallback, which must normalize a raw usage object without the rest
// of a full ResponsesResponseToMessages conversion.
func ResponsesUsageToMessages(usage any) map[string]any {
	return responsesUsageToMessages(usage)
}

func responsesUsageToMessages(usage any) map[string]any {
	u, _ := asMap(usage)

	cacheRead := numberOr(u["cache_read_input_tokens"], 0)
	if cacheRead == 0 {
		if details, ok := asMap(u["prompt_tokens_details"]); ok {
			cacheRead = numberOr(details["cached_tokens"], 0)
		}
	}

	return map[string]any{
		"input_tokens":            numberOr(u["input_tokens"], 0),
		"output_tokens":           numberOr(u["output_tokens"], 0),
		"cache_read_input_tokens": cacheRead,
	}
}
