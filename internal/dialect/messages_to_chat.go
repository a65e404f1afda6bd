package dialect

import (
	"strings"

	"github.com/aicodeswitch/aicodeswitch/internal/config"
)

// MessagesRequestToChat converts a Messages-dialect request body into a
// Chat-Completions-dialect request body.
func MessagesRequestToChat(req map[string]any, sourceType config.SourceType) map[string]any {
	out := map[string]any{}
	var chatMessages []any

	if sys, ok := req["system"]; ok {
		if text := flattenTextContent(sys); text != "" {
			role := "system"
			if sourceType == config.SourceDeepSeekChat {
				role = "developer"
			}
			chatMessages = append(chatMessages, map[string]any{"role": role, "content": text})
		}
	}

	if msgs, ok := asSlice(req["messages"]); ok {
		for _, m := range msgs {
			msg, ok := asMap(m)
			if !ok {
				continue
			}
			role := stringOr(msg["role"], "user")
			chatMessages = append(chatMessages, messageContentToChat(role, msg["content"])...)
		}
	}

	out["messages"] = chatMessages

	for _, k := range []string{"temperature", "top_p", "model"} {
		if v, ok := req[k]; ok {
			out[k] = v
		}
	}
	if v, ok := req["stop_sequences"]; ok {
		out["stop"] = v
	}
	if v, ok := req["max_tokens"]; ok {
		out["max_tokens"] = v
	}
	if v, ok := req["tool_choice"]; ok {
		out["tool_choice"] = normalizeToolChoice(v)
	}
	if tools, ok := asSlice(req["tools"]); ok {
		out["tools"] = messagesToolsToChat(tools)
	}
	if stream, ok := req["stream"].(bool); ok && stream {
		out["stream"] = true
		out["stream_options"] = map[string]any{"include_usage": true}
	}

	return out
}

func messageContentToChat(role string, content any) []any {
	text, ok := asString(content)
	if ok {
		return []any{map[string]any{"role": role, "content": text}}
	}

	blocks, ok := asSlice(content)
	if !ok {
		return nil
	}

	var textParts []string
	var multimodalParts []any
	var toolCalls []any
	var toolResultMessages []any

	for _, item := range blocks {
		block, ok := asMap(item)
		if !ok {
			continue
		}

		switch stringOr(block["type"], "") {
		case "text":
			t := stringOr(block["text"], "")
			textParts = append(textParts, t)
			multimodalParts = append(multimodalParts, map[string]any{"type": "text", "text": t})
		case "image", "image_url", "input_image":
			multimodalParts = append(multimodalParts, map[string]any{
				"type":      "image_url",
				"image_url": map[string]any{"url": imageURLOf(block)},
			})
		case "tool_use":
			toolCalls = append(toolCalls, map[string]any{
				"id":   stringOr(block["id"], ""),
				"type": "function",
				"function": map[string]any{
					"name":      stringOr(block["name"], ""),
					"arguments": toJSONString(block["input"]),
				},
			})
		case "tool_result":
			toolResultMessages = append(toolResultMessages, map[string]any{
				"role":         "tool",
				"tool_call_id": stringOr(block["tool_use_id"], ""),
				"content":      flattenTextContent(block["content"]),
			})
		default:
			if _, hasID := block["id"]; hasID {
				toolCalls = append(toolCalls, block)
			}
		}
	}

	var out []any
	if len(textParts) > 0 || len(toolCalls) > 0 || len(multimodalParts) > 0 {
		msg := map[string]any{"role": role}

		switch {
		case role == "user" && hasMultimodal(multimodalParts):
			msg["content"] = multimodalParts
		case len(textParts) > 0:
			msg["content"] = strings.Join(textParts, "")
		default:
			msg["content"] = ""
		}

		if len(toolCalls) > 0 {
			msg["tool_calls"] = toolCalls
			if len(textParts) == 0 {
				msg["content"] = nil
			}
		}

		out = append(out, msg)
	}

	out = append(out, toolResultMessages...)
	return out
}

func hasMultimodal(parts []any) bool {
	for _, p := range parts {
		if m, ok := asMap(p); ok {
			if t, _ := asString(m["type"]); t == "image_url" {
				return true
			}
		}
	}
	return false
}

func normalizeToolChoice(v any) any {
	switch t := v.(type) {
	case string:
		switch t {
		case "auto":
			return "auto"
		case "any", "required":
			return "required"
		default:
			return "auto"
		}
	case map[string]any:
		name := stringOr(t["name"], "")
		if name == "" {
			if fn, ok := asMap(t["function"]); ok {
				name = stringOr(fn["name"], "")
			}
		}
		if name == "" {
			return "auto"
		}
		return map[string]any{"type": "function", "function": map[string]any{"name": name}}
	default:
		return "auto"
	}
}

func messagesToolsToChat(tools []any) []any {
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
