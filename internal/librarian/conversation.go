package librarian

import (
	"github.com/cloudwego/eino/schema"
)

// Conversation is an immutable, ordered chat history. Append returns a new
// value and never modifies the receiver, so each turn's input can be kept
// and inspected independently.
type Conversation struct {
	msgs []*schema.Message
}

// NewConversation returns a Conversation holding msgs.
func NewConversation(msgs ...*schema.Message) Conversation {
	return Conversation{}.Append(msgs...)
}

// Append returns a new Conversation with msgs added at the end.
func (c Conversation) Append(msgs ...*schema.Message) Conversation {
	out := make([]*schema.Message, 0, len(c.msgs)+len(msgs))
	out = append(out, c.msgs...)
	out = append(out, msgs...)
	return Conversation{msgs: out}
}

// Messages returns a copy of the message slice, safe to hand to a model.
func (c Conversation) Messages() []*schema.Message {
	out := make([]*schema.Message, len(c.msgs))
	copy(out, c.msgs)
	return out
}

// Len returns the number of messages.
func (c Conversation) Len() int { return len(c.msgs) }
