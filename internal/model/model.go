package model

import "encoding/json"

// Message roles as reported by the gateway.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Chat stores metadata about a conversation. The gateway owns every field:
// the client never edits a Chat in place, it only replaces its copy with a
// fresh read.
type Chat struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	MessageCount int    `json:"message_count"`
}

// Message stores a single turn in a chat.
type Message struct {
	ID        string          `json:"id"`
	ChatID    string          `json:"chat_id,omitempty"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	ModelUsed *string         `json:"model_used,omitempty"` // Assistant turns only.
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// ModelInfo describes one entry of the gateway's model catalog.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	AutoRouting bool   `json:"auto_routing,omitempty"`
	ModelType   string `json:"model_type,omitempty"`
}
