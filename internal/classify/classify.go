// Package classify assigns a content class to an incoming request, used by
// the rule resolver to pick an upstream service.
package classify

import (
	"strings"

	"github.com/aicodeswitch/aicodeswitch/internal/config"
)

// LongContextTokenThreshold and LongContextCharThreshold are the literal
// constants the classifier checks against. They are preserved verbatim.
const (
	LongContextTokenThreshold = 8000
	LongContextCharThreshold  = 12000
)

var headerOverrideKeys = []string{
	"x-aicodeswitch-content-type",
	"x-content-type",
	"x-request-type",
	"x-object-type",
}

var bodyOverrideKeys = []string{
	"contentType", "content_type",
	"requestType", "request_type",
	"objectType", "object_type",
	"mode",
}

var aliasTable = map[string]config.ContentType{
	"default":             config.ContentDefault,
	"background":          config.ContentBackground,
	"bg":                  config.ContentBackground,
	"thinking":            config.ContentThinking,
	"reasoning":           config.ContentThinking,
	"long-context":        config.ContentLongContext,
	"long":                config.ContentLongContext,
	"long_context":        config.ContentLongContext,
	"image-understanding": config.ContentImageUnderstanding,
	"image":               config.ContentImageUnderstanding,
	"vision":              config.ContentImageUnderstanding,
	"image_understanding": config.ContentImageUnderstanding,
}

// normalize looks up s (trimmed, lowercased) in the alias table.
func normalize(s string) (config.ContentType, bool) {
	ct, ok := aliasTable[strings.ToLower(strings.TrimSpace(s))]
	return ct, ok
}

// Input is everything the classifier inspects about an incoming request.
type Input struct {
	Headers map[string]string
	Query   map[string]string
	Body    map[string]any
}

// Classify assigns a ContentType to in, per the resolution order: explicit
// override, image detection, thinking detection, long-context, background,
// default.
func Classify(in Input) config.ContentType {
	if ct, ok := explicitOverride(in); ok {
		return ct
	}
	if hasImageContent(in.Body) {
		return config.ContentImageUnderstanding
	}
	if isThinking(in.Body) {
		return config.ContentThinking
	}
	if isLongContext(in.Body) {
		return config.ContentLongContext
	}
	if isBackground(in.Body) {
		return config.ContentBackground
	}
	return config.ContentDefault
}

func explicitOverride(in Input) (config.ContentType, bool) {
	for _, key := range headerOverrideKeys {
		if v, ok := in.Headers[key]; ok {
			if ct, ok := normalize(v); ok {
				return ct, true
			}
		}
	}

	for _, key := range bodyOverrideKeys {
		if v, ok := in.Query[key]; ok {
			if ct, ok := normalize(v); ok {
				return ct, true
			}
		}
		if v, ok := stringField(in.Body, key); ok {
			if ct, ok := normalize(v); ok {
				return ct, true
			}
		}
		for _, ns := range []string{"metadata", "meta"} {
			if m, ok := subMap(in.Body, ns); ok {
				if v, ok := stringField(m, key); ok {
					if ct, ok := normalize(v); ok {
						return ct, true
					}
				}
			}
		}
	}

	return "", false
}

func stringField(m map[string]any, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func subMap(m map[string]any, key string) (map[string]any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m[key]
	if !ok {
		return nil, false
	}
	sub, ok := v.(map[string]any)
	return sub, ok
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true" || t == "background"
	default:
		return false
	}
}

func hasImageContent(body map[string]any) bool {
	for _, key := range []string{"messages", "input"} {
		items, ok := body[key].([]any)
		if !ok {
			continue
		}
		for _, item := range items {
			msg, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if containsImageBlock(msg["content"]) {
				return true
			}
		}
	}
	return false
}

func containsImageBlock(content any) bool {
	switch c := content.(type) {
	case []any:
		for _, block := range c {
			b, ok := block.(map[string]any)
			if !ok {
				continue
			}
			if t, _ := b["type"].(string); t == "image" || t == "image_url" || t == "input_image" {
				return true
			}
			if iv, ok := b["image_url"]; ok && truthyAny(iv) {
				return true
			}
		}
	case map[string]any:
		if t, _ := c["type"].(string); t == "image" || t == "image_url" || t == "input_image" {
			return true
		}
		if iv, ok := c["image_url"]; ok && truthyAny(iv) {
			return true
		}
	}
	return false
}

func truthyAny(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	default:
		return true
	}
}

func isThinking(body map[string]any) bool {
	for _, key := range []string{"reasoning", "thinking", "reasoning_effort"} {
		if v, ok := body[key]; ok && truthyAny(v) {
			return true
		}
	}
	if r, ok := subMap(body, "reasoning"); ok {
		if v, ok := r["effort"]; ok && truthyAny(v) {
			return true
		}
		if v, ok := r["enabled"]; ok && truthy(v) {
			return true
		}
	}
	return false
}

func isLongContext(body map[string]any) bool {
	if v, ok := body["long_context"]; ok && truthy(v) {
		return true
	}
	if v, ok := body["longContext"]; ok && truthy(v) {
		return true
	}
	if m, ok := subMap(body, "metadata"); ok {
		if v, ok := m["long_context"]; ok && truthy(v) {
			return true
		}
		if v, ok := m["longContext"]; ok && truthy(v) {
			return true
		}
	}

	for _, key := range []string{"max_tokens", "max_output_tokens", "max_completion_tokens", "max_context_tokens"} {
		if n, ok := numberField(body, key); ok && n >= LongContextTokenThreshold {
			return true
		}
	}

	return estimateTextLength(body) >= LongContextCharThreshold
}

func numberField(m map[string]any, key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	n, ok := v.(float64)
	return n, ok
}

// estimateTextLength sums the character length of every text/string
// content fragment across messages, input, system, instructions, prompt.
func estimateTextLength(body map[string]any) int {
	total := 0

	for _, key := range []string{"messages", "input"} {
		items, ok := body[key].([]any)
		if !ok {
			continue
		}
		for _, item := range items {
			msg, ok := item.(map[string]any)
			if !ok {
				continue
			}
			total += textLengthOf(msg["content"])
		}
	}

	total += textLengthOf(body["system"])
	total += textLengthOf(body["instructions"])
	total += textLengthOf(body["prompt"])

	return total
}

// collectText concatenates the same text/string fragments estimateTextLength
// measures, for callers that need the actual text rather than its length
// (the tiktoken-backed estimator in estimate.go).
func collectText(body map[string]any) string {
	var b strings.Builder

	for _, key := range []string{"messages", "input"} {
		items, ok := body[key].([]any)
		if !ok {
			continue
		}
		for _, item := range items {
			msg, ok := item.(map[string]any)
			if !ok {
				continue
			}
			appendText(&b, msg["content"])
		}
	}

	appendText(&b, body["system"])
	appendText(&b, body["instructions"])
	appendText(&b, body["prompt"])

	return b.String()
}

func appendText(b *strings.Builder, content any) {
	switch c := content.(type) {
	case string:
		b.WriteString(c)
	case []any:
		for _, block := range c {
			switch v := block.(type) {
			case string:
				b.WriteString(v)
			case map[string]any:
				if t, ok := v["text"].(string); ok {
					b.WriteString(t)
				}
			}
		}
	}
}

func textLengthOf(content any) int {
	switch c := content.(type) {
	case string:
		return len(c)
	case []any:
		total := 0
		for _, block := range c {
			switch b := block.(type) {
			case string:
				total += len(b)
			case map[string]any:
				if t, ok := b["text"].(string); ok {
					total += len(t)
				}
			}
		}
		return total
	default:
		return 0
	}
}

func isBackground(body map[string]any) bool {
	if v, ok := body["background"]; ok {
		if b, ok := v.(bool); ok && b {
			return true
		}
	}
	for _, ns := range []string{"metadata", "meta"} {
		if m, ok := subMap(body, ns); ok {
			if v, ok := m["background"]; ok && truthy(v) {
				return true
			}
			if v, ok := m["priority"]; ok && truthy(v) {
				return true
			}
		}
	}
	if v, ok := body["priority"]; ok && truthy(v) {
		return true
	}
	if v, ok := body["mode"].(string); ok && v == "background" {
		return true
	}
	return false
}
