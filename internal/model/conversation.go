package model

import "time"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one immutable transcript entry.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is a transcript owned by a single user.
// Messages are kept in insertion order and only ever appended.
type Conversation struct {
	ID        int64     `json:"conversation_id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"timestamp"`
	Messages  []Message `json:"messages"`
}

// FirstUserMessage returns the content of the earliest user turn, or "".
func (c *Conversation) FirstUserMessage() string {
	for _, m := range c.Messages {
		if m.Role == RoleUser {
			return m.Content
		}
	}
	return ""
}

// ConversationSummary is the list view of a conversation.
type ConversationSummary struct {
	ID           int64     `json:"conversation_id"`
	UserID       int64     `json:"user_id"`
	CreatedAt    time.Time `json:"timestamp"`
	FirstMessage string    `json:"first_message"`
}

// StartConversationRequest opens a conversation with a seed message.
type StartConversationRequest struct {
	FirstMessage string `json:"first_message"`
}

// MessageRequest appends a user turn.
type MessageRequest struct {
	Content string `json:"content"`
}

// Stream event types, in the order they are emitted.
const (
	EventUserMessage       = "user_message"
	EventAssistantStart    = "assistant_start"
	EventAssistantChunk    = "assistant_chunk"
	EventAssistantComplete = "assistant_complete"
	EventDone              = "done"
	EventError             = "error"
)

// StreamEvent is one frame of an incremental turn.
type StreamEvent struct {
	Type    string   `json:"type"`
	Message *Message `json:"message,omitempty"`
	Content string   `json:"content,omitempty"`
	Error   string   `json:"error,omitempty"`
}
