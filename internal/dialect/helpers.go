package dialect

import "encoding/json"

// asMap is a defensive cast used throughout the transformers: upstream
// JSON is untyped, and a field arriving in an unexpected shape should be
// treated as absent rather than panic.
func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func stringOr(v any, fallback string) string {
	if s, ok := asString(v); ok {
		return s
	}
	return fallback
}

// toJSONString marshals v to a compact JSON string, returning "{}" if v is
// nil and "null" only if marshaling genuinely fails.
func toJSONString(v any) string {
	if v == nil {
		return "{}"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// parseJSONOrString attempts to JSON-decode s; on failure it returns s
// itself, matching the spec's "arguments left as string if unparseable"
// behavior.
func parseJSONOrString(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

// flattenTextContent reduces a Messages/Chat/Responses "content" field
// (a string, or a list of typed blocks) down to a single concatenated
// string. Any block with a string "text" field contributes it, whatever its
// type, and bare strings in the list contribute as-is, matching the
// source's permissive shape-based inspection.
func flattenTextContent(content any) string {
	switch c := content.(type) {
	case string:
		return c
	case []any:
		var out string
		for _, item := range c {
			block, ok := asMap(item)
			if !ok {
				if s, ok := asString(item); ok {
					out += s
				}
				continue
			}
			if t, ok := asString(block["text"]); ok {
				out += t
			}
		}
		return out
	default:
		return ""
	}
}

// imageURLOf returns the best-effort URL string for an image block,
// supporting both the nested {image_url:{url}} shape and a bare
// {source:{type,media_type,data}} Messages-dialect shape.
func imageURLOf(block map[string]any) string {
	if iu, ok := asMap(block["image_url"]); ok {
		if u, ok := asString(iu["url"]); ok {
			return u
		}
	}
	if u, ok := asString(block["image_url"]); ok {
		return u
	}
	if src, ok := asMap(block["source"]); ok {
		if t, _ := asString(src["type"]); t == "base64" {
			media := stringOr(src["media_type"], "image/png")
			data := stringOr(src["data"], "")
			return "data:" + media + ";base64," + data
		}
		if u, ok := asString(src["url"]); ok {
			return u
		}
	}
	return ""
}
