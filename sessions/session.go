package sessions

import "time"

// DefaultTitle marks a conversation that has not yet been named from its
// first user message.
const DefaultTitle = "untitled"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Reference is a knowledge-base source cited by an answer.
type Reference struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// Message is immutable once stored in a Session.
type Message struct {
	ID         string      `json:"id"`
	Role       Role        `json:"role"`
	Content    string      `json:"content"`
	Timestamp  time.Time   `json:"timestamp"`
	References []Reference `json:"references,omitempty"`
	Actions    []string    `json:"actions,omitempty"`
}

// Session is one conversation. ID and Created never change; Updated is
// bumped on every mutation and never moves backwards.
type Session struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Messages []Message `json:"messages"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
}

// Clone returns a deep copy safe for independent mutation.
func (s *Session) Clone() *Session {
	clone := *s
	clone.Messages = cloneMessages(s.Messages)
	return &clone
}

// HasUserMessage reports whether any user message has been stored.
func (s *Session) HasUserMessage() bool {
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			return true
		}
	}
	return false
}

func cloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m
		if m.References != nil {
			out[i].References = append([]Reference(nil), m.References...)
		}
		if m.Actions != nil {
			out[i].Actions = append([]string(nil), m.Actions...)
		}
	}
	return out
}

// NewMessage builds a message with a fresh id.
func NewMessage(role Role, content string, at time.Time) Message {
	return Message{
		ID:        newID("msg", at),
		Role:      role,
		Content:   content,
		Timestamp: normalizeTime(at),
	}
}
