package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// Manager owns conversation lifecycle: it resolves profiles, lists a
// profile's conversations, and resumes the most recent one. Conversation
// creation is deliberately absent here; it is deferred to the first sent
// turn (see Executor).
//
// Manager is stateless and safe for concurrent use.
type Manager struct {
	profiles      ProfileStore
	documents     DocumentStore
	conversations ConversationStore
	logger        *slog.Logger
}

// NewManager creates a Manager. logger may be nil.
func NewManager(profiles ProfileStore, documents DocumentStore, conversations ConversationStore, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		profiles:      profiles,
		documents:     documents,
		conversations: conversations,
		logger:        logger,
	}
}

// ResolveProfile resolves a profile id and attaches its document count.
// Failure wraps ErrProfileNotFound and is a hard precondition for everything
// else in the subsystem.
func (m *Manager) ResolveProfile(ctx context.Context, profileID string) (*Profile, error) {
	if profileID == "" {
		return nil, ErrNoProfileSpecified
	}

	profile, err := m.profiles.Profile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("resolve profile %s: %w", profileID, err)
	}

	count, err := m.documents.CountByProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("count documents for profile %s: %w", profileID, err)
	}
	profile.DocumentCount = count

	m.logger.Debug("resolved profile", "id", profile.ID, "documents", count)
	return profile, nil
}

// ListConversations returns the profile's conversations most-recent-first.
// The ordering is enforced here even if the store returns them unsorted.
func (m *Manager) ListConversations(ctx context.Context, profileID string) ([]*Conversation, error) {
	convs, err := m.conversations.ConversationsByProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("list conversations for profile %s: %w", profileID, err)
	}

	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].CreatedAt.After(convs[j].CreatedAt)
	})
	return convs, nil
}

// ResumeOrStart loads the most recent conversation for the profile together
// with its full message history. When the profile has no conversations it
// returns (nil, empty, nil): opening a chat never creates a conversation
// row. The call is read-only and therefore idempotent.
func (m *Manager) ResumeOrStart(ctx context.Context, profileID string) (*Conversation, []*Message, error) {
	convs, err := m.ListConversations(ctx, profileID)
	if err != nil {
		return nil, nil, err
	}
	if len(convs) == 0 {
		return nil, []*Message{}, nil
	}

	latest := convs[0]
	messages, err := m.conversations.MessagesByConversation(ctx, latest.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load messages for conversation %s: %w", latest.ID, err)
	}

	m.logger.Debug("resumed conversation", "id", latest.ID, "messages", len(messages))
	return latest, messages, nil
}
