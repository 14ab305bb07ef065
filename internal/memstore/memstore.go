// Package memstore provides in-memory implementations of the chat ports.
//
// It backs the demo server and the tests: the Conversation Manager and Turn
// Executor are exercised against it without a database. All methods are safe
// for concurrent use.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docuchat/docuchat/internal/chat"
)

// Store holds every collection behind the chat ports. The zero value is not
// useful; use New.
type Store struct {
	mu sync.RWMutex

	user          *chat.User
	profiles      map[string]*chat.Profile
	documents     map[string]int // profileID -> count
	prompts       []*chat.SystemPrompt
	conversations map[string]*chat.Conversation
	messages      map[string][]*chat.Message // conversationID -> ordered log

	// failCreateConversation and failCreateMessage inject write failures
	// for tests exercising the persistence-failure paths.
	failCreateConversation error
	failCreateMessage      error
}

// New creates an empty store with an authenticated demo user.
func New() *Store {
	return &Store{
		user:          &chat.User{ID: "demo", Email: "demo@example.com"},
		profiles:      make(map[string]*chat.Profile),
		documents:     make(map[string]int),
		conversations: make(map[string]*chat.Conversation),
		messages:      make(map[string][]*chat.Message),
	}
}

// CurrentUser implements chat.AuthProvider.
func (s *Store) CurrentUser(_ context.Context) (*chat.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, nil
}

// SetUser replaces the authenticated user; nil means unauthenticated.
func (s *Store) SetUser(u *chat.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}

// Profile implements chat.ProfileStore.
func (s *Store) Profile(_ context.Context, id string) (*chat.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", id, chat.ErrProfileNotFound)
	}
	cp := *p
	return &cp, nil
}

// AddProfile registers a profile and its document count.
func (s *Store) AddProfile(p *chat.Profile, documentCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
	s.documents[p.ID] = documentCount
}

// CountByProfile implements chat.DocumentStore.
func (s *Store) CountByProfile(_ context.Context, profileID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.documents[profileID], nil
}

// ActivePrompts implements chat.PromptStore.
func (s *Store) ActivePrompts(_ context.Context) ([]*chat.SystemPrompt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*chat.SystemPrompt, 0, len(s.prompts))
	for _, p := range s.prompts {
		if p.IsActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// AddPrompt registers a system prompt.
func (s *Store) AddPrompt(p *chat.SystemPrompt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, p)
}

// ConversationsByProfile implements chat.ConversationStore.
func (s *Store) ConversationsByProfile(_ context.Context, profileID string) ([]*chat.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*chat.Conversation, 0)
	for _, c := range s.conversations {
		if c.ProfileID == profileID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// MessagesByConversation implements chat.ConversationStore.
func (s *Store) MessagesByConversation(_ context.Context, conversationID string) ([]*chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, chat.ErrConversationNotFound)
	}
	log := s.messages[conversationID]
	out := make([]*chat.Message, len(log))
	for i, m := range log {
		cp := *m
		out[i] = &cp
	}
	return out, nil
}

// CreateConversation implements chat.ConversationStore.
func (s *Store) CreateConversation(_ context.Context, profileID, title, systemPromptID string) (*chat.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failCreateConversation != nil {
		return nil, s.failCreateConversation
	}
	if _, ok := s.profiles[profileID]; !ok {
		return nil, fmt.Errorf("profile %s: %w", profileID, chat.ErrProfileNotFound)
	}

	conv := &chat.Conversation{
		ID:             uuid.NewString(),
		ProfileID:      profileID,
		Title:          title,
		SystemPromptID: systemPromptID,
		CreatedAt:      time.Now(),
	}
	s.conversations[conv.ID] = conv
	return conv, nil
}

// CreateMessage implements chat.ConversationStore. Sequence numbers are
// assigned from the log length, so insertion order is creation order.
func (s *Store) CreateMessage(_ context.Context, conversationID string, params chat.CreateMessageParams) (*chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failCreateMessage != nil {
		return nil, s.failCreateMessage
	}
	if _, ok := s.conversations[conversationID]; !ok {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, chat.ErrConversationNotFound)
	}

	msg := &chat.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           params.Role,
		Content:        params.Content,
		Status:         chat.StatusCompleted,
		SystemPromptID: params.SystemPromptID,
		SequenceNumber: len(s.messages[conversationID]) + 1,
		CreatedAt:      time.Now(),
		Sources:        params.Sources,
	}
	s.messages[conversationID] = append(s.messages[conversationID], msg)

	cp := *msg
	return &cp, nil
}

// FailWrites configures injected errors for the create operations; nil
// restores normal behavior.
func (s *Store) FailWrites(createConversation, createMessage error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCreateConversation = createConversation
	s.failCreateMessage = createMessage
}
