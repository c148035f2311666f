package types

import "time"

// Role of a chat message participant.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one turn of a conversation. Assistant messages carry the
// entity refs their answer was grounded in.
type ChatMessage struct {
	Role      Role        `json:"role"`
	Content   string      `json:"content"`
	Sources   []EntityRef `json:"sources,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewUserMessage creates a user message stamped with the current time.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: content, Timestamp: time.Now().UTC()}
}

// NewAssistantMessage creates an assistant message with its grounding sources.
func NewAssistantMessage(content string, sources []EntityRef) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: content, Sources: sources, Timestamp: time.Now().UTC()}
}
