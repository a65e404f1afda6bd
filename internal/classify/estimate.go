package classify

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

func encoding() *tiktoken.Tiktoken {
	encOnce.Do(func() {
		e, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			enc = e
		}
	})
	return enc
}

// EstimateTokens returns a cl100k_base token estimate for text, used for
// diagnostics alongside the character-count long-context check (which
// remains the authoritative signal). Returns 0 if the encoding could not
// be loaded.
func EstimateTokens(text string) int {
	e := encoding()
	if e == nil {
		return 0
	}
	return len(e.Encode(text, nil, nil))
}

// EstimatePromptTokens estimates the token count of the same text fields
// the long-context heuristic scans (messages, input, system, instructions,
// prompt). It is logged alongside each request for diagnostics; the
// long-context decision itself stays on the char-count/max-tokens checks
// in isLongContext, which are pinned verbatim by spec.
func EstimatePromptTokens(body map[string]any) int {
	return EstimateTokens(collectText(body))
}
