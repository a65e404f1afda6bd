package proxy

import (
	"github.com/aicodeswitch/aicodeswitch/internal/config"
	"github.com/aicodeswitch/aicodeswitch/internal/stream"
)

// selectStreamTransformer returns the stream.Transformer for the given
// (targetType, sourceType) pair, or nil when the upstream stream should
// pass through unmodified.
func selectStreamTransformer(targetType config.TargetType, source config.SourceType) stream.Transformer {
	switch {
	case targetType == config.TargetClaudeCode && isClaudeFamily(source):
		return nil
	case targetType == config.TargetClaudeCode && isChatFamily(source):
		return stream.NewChatToMessages()
	case targetType == config.TargetClaudeCode && source == config.SourceResponses:
		return stream.NewResponsesToMessages()
	case targetType == config.TargetCodex && source == config.SourceResponses:
		return nil
	case targetType == config.TargetCodex && isChatFamily(source):
		return stream.NewChatToResponses()
	case targetType == config.TargetCodex && isClaudeFamily(source):
		return stream.NewMessagesToResponses()
	default:
		return nil
	}
}
