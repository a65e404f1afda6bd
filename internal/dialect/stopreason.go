// Package dialect implements the pure, referentially-transparent payload
// transformers that convert a single request or response object between
// the Messages, Chat, and Responses wire dialects. None of these functions
// fail: missing fields map to null/absent, and unknown content items are
// dropped except best-effort tool_use-shaped entries.
package dialect

// ToAnthropicStopReason maps an OpenAI-style finish_reason to a Messages
// dialect stop_reason. Unrecognized and empty reasons default to
// "end_turn".
func ToAnthropicStopReason(reason string) string {
	switch reason {
	case "stop":
		return "end_turn"
	case "length":
		return "max_tokens"
	case "tool_calls":
		return "tool_use"
	case "content_filter":
		return "end_turn"
	default:
		return "end_turn"
	}
}
