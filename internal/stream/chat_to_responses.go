package stream

import "github.com/aicodeswitch/aicodeswitch/internal/sse"

// ChatToResponses composes ChatToMessages feeding MessagesToResponses, for
// a Codex-shaped client talking to a Chat upstream. The intermediate
// Messages-dialect stream is in-process only and never observed
// externally; the two transformers share no state.
type ChatToResponses struct {
	chat      *ChatToMessages
	responses *MessagesToResponses
}

// NewChatToResponses constructs the composed transformer.
func NewChatToResponses() *ChatToResponses {
	return &ChatToResponses{
		chat:      NewChatToMessages(),
		responses: NewMessagesToResponses(),
	}
}

func (c *ChatToResponses) OnEvent(ev sse.Event) []sse.Event {
	intermediate := c.chat.OnEvent(ev)

	var out []sse.Event
	for _, e := range intermediate {
		out = append(out, c.responses.OnEvent(e)...)
	}
	return out
}

func (c *ChatToResponses) Finalize() []sse.Event {
	intermediate := c.chat.Finalize()

	var out []sse.Event
	for _, e := range intermediate {
		out = append(out, c.responses.OnEvent(e)...)
	}
	return out
}
