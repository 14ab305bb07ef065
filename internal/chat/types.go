package chat

import (
	"time"

	"github.com/docuchat/docuchat/internal/source"
)

// Role constants define valid message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message status values.
const (
	// StatusCompleted marks a message that was generated and accepted.
	StatusCompleted = "completed"

	// StatusPending marks an assistant placeholder awaiting generation.
	StatusPending = "pending"

	// StatusFailed marks an assistant placeholder whose turn failed.
	// Failed placeholders are never persisted; they exist so the UI can
	// offer a retry affordance addressed by message id.
	StatusFailed = "failed"
)

// Profile identifies a scoped document collection. Profiles are created and
// edited by an external management surface; this subsystem only references
// them and never mutates them.
type Profile struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	DocumentCount int       `json:"documentCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// SystemPrompt is a named behavior template. Only active prompts are
// selectable for new conversations; a conversation records the prompt id it
// was created with, and later edits to the prompt do not retroactively alter
// that association.
type SystemPrompt struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PromptText  string    `json:"promptText"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Conversation is an ordered thread of messages bound to exactly one profile
// and one originating system prompt. ProfileID is immutable after creation.
type Conversation struct {
	ID             string    `json:"id"`
	ProfileID      string    `json:"profileId"`
	Title          string    `json:"title"`
	SystemPromptID string    `json:"systemPromptId"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Message is a single turn half within a conversation. Messages are strictly
// ordered by sequence number; ties cannot occur because sequence numbers are
// assigned by the store under a lock.
type Message struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversationId"`
	Role           string          `json:"role"`
	Content        string          `json:"content"`
	Status         string          `json:"status"`
	SystemPromptID string          `json:"systemPromptId,omitempty"`
	SequenceNumber int             `json:"sequenceNumber"`
	CreatedAt      time.Time       `json:"createdAt"`
	Sources        []source.Source `json:"sources,omitempty"`

	// Failure describes why the turn that owns this message failed.
	// Only set on StatusFailed placeholders and on messages whose
	// persistence failed after a successful generation.
	Failure *TurnError `json:"failure,omitempty"`
}

// TurnResult is the outcome of one Executor invocation. It is ephemeral and
// never persisted.
type TurnResult struct {
	UserMessage      *Message
	AssistantMessage *Message

	// Err is non-nil when the turn failed; AssistantMessage then points at
	// the failed placeholder rather than a real answer.
	Err *TurnError
}

// TruncateTitle derives a conversation title from the first query: the first
// 50 characters, ellipsis-terminated when the query is longer.
func TruncateTitle(query string) string {
	const max = 50
	runes := []rune(query)
	if len(runes) <= max {
		return query
	}
	return string(runes[:max]) + "..."
}
