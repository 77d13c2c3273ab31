package domain

import "strings"

// Role identifies the author of a conversation entry.
type Role string

const (
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one transcript entry.
type ConversationTurn struct {
	Role    Role
	Content string
}

// ConversationBuffer keeps the most recent entries of a session's transcript.
// The zero value is usable and caps at DefaultConversationLimit.
type ConversationBuffer struct {
	limit   int
	entries []ConversationTurn
}

// NewConversationBuffer returns a buffer capped at limit entries.
func NewConversationBuffer(limit int) *ConversationBuffer {
	return &ConversationBuffer{limit: limit}
}

// Append adds an entry and evicts the oldest ones beyond the cap.
func (b *ConversationBuffer) Append(role Role, content string) {
	b.entries = append(b.entries, ConversationTurn{Role: role, Content: content})
	if over := len(b.entries) - b.Limit(); over > 0 {
		b.entries = append([]ConversationTurn(nil), b.entries[over:]...)
	}
}

// Limit returns the configured cap.
func (b *ConversationBuffer) Limit() int {
	if b.limit <= 0 {
		return DefaultConversationLimit
	}
	return b.limit
}

// Len returns the number of retained entries.
func (b *ConversationBuffer) Len() int {
	return len(b.entries)
}

// Entries returns a copy of the retained entries, oldest first.
func (b *ConversationBuffer) Entries() []ConversationTurn {
	out := make([]ConversationTurn, len(b.entries))
	copy(out, b.entries)
	return out
}

// Transcript flattens the buffer into the agent input.
func (b *ConversationBuffer) Transcript() string {
	lines := make([]string, 0, len(b.entries))
	for _, entry := range b.entries {
		lines = append(lines, string(entry.Role)+": "+entry.Content)
	}
	return strings.Join(lines, "\n")
}

// Reset drops every entry.
func (b *ConversationBuffer) Reset() {
	b.entries = nil
}
