package proxy

import (
	"fmt"

	"github.com/aicodeswitch/aicodeswitch/internal/config"
	"github.com/aicodeswitch/aicodeswitch/internal/dialect"
	"github.com/aicodeswitch/aicodeswitch/internal/proxyerr"
)

func isClaudeFamily(s config.SourceType) bool {
	return s == config.SourceClaudeChat || s == config.SourceClaudeCode
}

func isChatFamily(s config.SourceType) bool {
	return s == config.SourceOpenAIChat || s == config.SourceOpenAICode || s == config.SourceDeepSeekChat
}

// translateRequest implements the request translation matrix of §4.6.3:
// (targetType × sourceType family) → transform.
func translateRequest(targetType config.TargetType, source config.SourceType, body map[string]any) (map[string]any, error) {
	switch {
	case targetType == config.TargetClaudeCode && isClaudeFamily(source):
		return body, nil
	case targetType == config.TargetClaudeCode && isChatFamily(source):
		return dialect.MessagesRequestToChat(body, source), nil
	case targetType == config.TargetClaudeCode && source == config.SourceResponses:
		return dialect.MessagesRequestToResponses(body), nil
	case targetType == config.TargetCodex && source == config.SourceResponses:
		return body, nil
	case targetType == config.TargetCodex && isChatFamily(source):
		return dialect.ResponsesRequestToChat(body), nil
	case targetType == config.TargetCodex && isClaudeFamily(source):
		return dialect.ResponsesRequestToMessages(body), nil
	default:
		return nil, fmt.Errorf("proxy: no request transform for targetType=%s sourceType=%s: %w", targetType, source, proxyerr.ErrUnsupportedSource)
	}
}

// translateResponse implements the symmetric non-streaming response
// transform (same matrix, inverted direction), including the Codex×Chat
// chain (Chat→Messages then Messages→Responses).
func translateResponse(targetType config.TargetType, source config.SourceType, body map[string]any) (map[string]any, error) {
	switch {
	case targetType == config.TargetClaudeCode && isClaudeFamily(source):
		return body, nil
	case targetType == config.TargetClaudeCode && isChatFamily(source):
		return dialect.ChatResponseToMessages(body), nil
	case targetType == config.TargetClaudeCode && source == config.SourceResponses:
		return dialect.ResponsesResponseToMessages(body), nil
	case targetType == config.TargetCodex && source == config.SourceResponses:
		return body, nil
	case targetType == config.TargetCodex && isChatFamily(source):
		intermediate := dialect.ChatResponseToMessages(body)
		return dialect.MessagesResponseToResponses(intermediate), nil
	case targetType == config.TargetCodex && isClaudeFamily(source):
		return dialect.MessagesResponseToResponses(body), nil
	default:
		return nil, fmt.Errorf("proxy: no response transform for targetType=%s sourceType=%s: %w", targetType, source, proxyerr.ErrUnsupportedSource)
	}
}

func applyModelOverride(body map[string]any, model string) map[string]any {
	if model == "" {
		return body
	}
	body["model"] = model
	return body
}
