package core

import "time"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Conversation is a chat thread with an optional system message.
type Conversation struct {
	ID            string
	UserID        string
	Title         string
	SystemMessage string
	Metadata      map[string]string
	InsertedAt    time.Time
	UpdatedAt     time.Time
}

// Message is a single entry of a Conversation.
type Message struct {
	ID             string
	Seq            uint64 // insertion order within the store
	ConversationID string
	Role           Role
	Content        string
	Metadata       map[string]string
	TokenCount     int
	CreatedAt      time.Time
}
