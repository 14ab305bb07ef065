package chat

import (
	"context"

	"github.com/docuchat/docuchat/internal/source"
)

// Ports to external collaborators. Interfaces are defined here, by the
// consumer; implementations live in internal/memstore and internal/postgres.

// User is the authenticated actor, as reported by the auth collaborator.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthProvider reports the current actor. A nil user means unauthenticated.
type AuthProvider interface {
	CurrentUser(ctx context.Context) (*User, error)
}

// StaticAuth is an AuthProvider that always resolves the same user, for
// deployments where authentication happens upstream of this service.
type StaticAuth struct {
	User *User
}

// CurrentUser implements AuthProvider.
func (a StaticAuth) CurrentUser(context.Context) (*User, error) {
	return a.User, nil
}

// ProfileStore resolves profiles by id.
type ProfileStore interface {
	// Profile returns the profile or an error wrapping ErrProfileNotFound.
	Profile(ctx context.Context, id string) (*Profile, error)
}

// DocumentStore exposes the documents bound to a profile. The conversation
// subsystem only ever needs the count.
type DocumentStore interface {
	CountByProfile(ctx context.Context, profileID string) (int, error)
}

// PromptStore lists the system prompts selectable for new conversations.
type PromptStore interface {
	// ActivePrompts returns prompts with IsActive set, in display order.
	ActivePrompts(ctx context.Context) ([]*SystemPrompt, error)
}

// CreateMessageParams carries one message write. Sequence numbers are
// assigned by the store; callers must not supply them.
type CreateMessageParams struct {
	Role           string
	Content        string
	SystemPromptID string
	Sources        []source.Source
}

// ConversationStore is the durable persistence collaborator for
// conversations and their message logs.
type ConversationStore interface {
	// ConversationsByProfile returns the profile's conversations ordered
	// most-recent-first.
	ConversationsByProfile(ctx context.Context, profileID string) ([]*Conversation, error)

	// MessagesByConversation returns the full message log in strict
	// creation order.
	MessagesByConversation(ctx context.Context, conversationID string) ([]*Message, error)

	// CreateConversation creates a conversation bound to the profile and
	// originating system prompt, returning the stored row.
	CreateConversation(ctx context.Context, profileID, title, systemPromptID string) (*Conversation, error)

	// CreateMessage appends a message, assigning the next sequence number,
	// and returns the stored row with its server-issued id.
	CreateMessage(ctx context.Context, conversationID string, params CreateMessageParams) (*Message, error)
}

// GenerateRequest is the input to the answer-generation collaborator.
type GenerateRequest struct {
	Query   string
	Profile *Profile
	Prompt  *SystemPrompt

	// History is the conversation so far, oldest first, excluding the
	// query being answered.
	History []*Message
}

// GenerateResult is a generated answer with zero or more cited sources.
type GenerateResult struct {
	Content string
	Sources []source.Source
}

// Generator produces an assistant answer for a query. Implementations are
// asynchronous-by-contract: they must honor ctx cancellation. Actual
// inference is out of scope for this subsystem; see internal/generate for
// the simulated and OpenAI-backed implementations.
type Generator interface {
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error)
}
