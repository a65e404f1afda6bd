package proxy

import "github.com/aicodeswitch/aicodeswitch/internal/config"

// usageFromMap normalizes a dialect-shaped usage object (already in the
// Messages family's input_tokens/output_tokens/cache_read_input_tokens
// naming: the buffered path passes the translated response's usage, the
// streaming path a usage object normalized by extractStreamUsage) into
// config.TokenUsage.
func usageFromMap(m map[string]any) config.TokenUsage {
	if m == nil {
		return config.TokenUsage{}
	}

	in := intField(m, "input_tokens")
	out := intField(m, "output_tokens")

	usage := config.TokenUsage{InputTokens: in, OutputTokens: out}

	if cr, ok := m["cache_read_input_tokens"]; ok {
		v := int(numberOrZero(cr))
		usage.CacheReadInputTokens = &v
	}

	total := in + out
	usage.TotalTokens = &total

	return usage
}

func intField(m map[string]any, key string) int {
	return int(numberOrZero(m[key]))
}

func numberOrZero(v any) float64 {
	n, _ := v.(float64)
	return n
}
