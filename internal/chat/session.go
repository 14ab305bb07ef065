package chat

import (
	"fmt"
	"strings"
	"sync"

	"github.com/docuchat/docuchat/internal/source"
)

// Session is the live view of one open conversation: the bound profile, the
// selectable system prompts, the (possibly nil) conversation, and the
// in-memory message projection.
//
// A Session has one logical writer. The mutex protects readers; turn
// exclusion is the inFlight flag checked at entry of Executor.Send.
type Session struct {
	mu sync.Mutex

	profile      *Profile
	prompts      []*SystemPrompt
	prompt       *SystemPrompt
	conversation *Conversation
	messages     []*Message

	inFlight bool
	closed   bool
}

// NewSession builds a session in the given state. prompts must already be
// filtered to active ones; when prompt is nil the first active prompt is
// auto-selected. With zero active prompts the session stays unbound and
// CanSend reports false — a blocking state, never a silent fallback.
func NewSession(profile *Profile, prompts []*SystemPrompt, conversation *Conversation, messages []*Message) *Session {
	s := &Session{
		profile:      profile,
		prompts:      prompts,
		conversation: conversation,
		messages:     append([]*Message(nil), messages...),
	}
	if len(prompts) > 0 {
		s.prompt = prompts[0]
	}
	return s
}

// Profile returns the bound profile.
func (s *Session) Profile() *Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Prompts returns the selectable (active) system prompts.
func (s *Session) Prompts() []*SystemPrompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*SystemPrompt(nil), s.prompts...)
}

// Prompt returns the currently selected system prompt, or nil when no active
// prompt exists.
func (s *Session) Prompt() *SystemPrompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompt
}

// SelectPrompt switches the selected system prompt. Pure state transition,
// no persistence. Only prompts from the loaded active list are selectable;
// anything else is rejected with ErrPromptNotSelectable.
func (s *Session) SelectPrompt(promptID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	for _, p := range s.prompts {
		if p.ID == promptID {
			if !p.IsActive {
				return fmt.Errorf("select prompt %s: %w", promptID, ErrPromptNotSelectable)
			}
			s.prompt = p
			return nil
		}
	}
	return fmt.Errorf("select prompt %s: %w", promptID, ErrPromptNotSelectable)
}

// Conversation returns the bound conversation, nil before the first
// successful turn.
func (s *Session) Conversation() *Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversation
}

// Messages returns a copy of the message projection in creation order.
func (s *Session) Messages() []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Message(nil), s.messages...)
}

// InFlight reports whether an exchange is currently pending.
func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// CanSend reports whether input should be enabled: profile bound AND an
// active system prompt bound AND no turn mid-flight.
func (s *Session) CanSend() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile != nil && s.prompt != nil && !s.inFlight && !s.closed
}

// SourceRegistry recomputes the deduplicated source view from the message
// projection. Pure and synchronous; safe to call from any read path.
func (s *Session) SourceRegistry() *source.Registry {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg := source.NewRegistry()
	for _, msg := range s.messages {
		if len(msg.Sources) > 0 {
			reg.Add(msg.ID, msg.Sources...)
		}
	}
	return reg
}

// Close tears the session down. Turn resolutions arriving after Close are
// dropped rather than thrown into the void; subsequent operations report
// ErrSessionClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Closed reports whether the session was torn down.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// beginTurn validates the send preconditions and claims the in-flight slot.
// query is returned trimmed of surrounding whitespace for emptiness checks
// only; the original text is what gets recorded.
func (s *Session) beginTurn(query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if strings.TrimSpace(query) == "" {
		return ErrEmptyQuery
	}
	if s.inFlight {
		return ErrTurnInFlight
	}
	if s.profile == nil {
		return ErrProfileNotFound
	}
	if s.prompt == nil {
		return ErrNoActivePrompt
	}

	s.inFlight = true
	return nil
}

// endTurn releases the in-flight slot.
func (s *Session) endTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
}

// snapshot returns the bound context for a turn: profile, prompt,
// conversation and history copy, taken under one lock acquisition.
func (s *Session) snapshot() (*Profile, *SystemPrompt, *Conversation, []*Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile, s.prompt, s.conversation, append([]*Message(nil), s.messages...)
}

// bindConversation records the conversation created on the first turn.
func (s *Session) bindConversation(conv *Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversation = conv
}

// append adds a message to the projection. Returns false when the session
// is closed, in which case the message is dropped.
func (s *Session) append(msg *Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.messages = append(s.messages, msg)
	return true
}

// replace swaps the message with the given id for its reconciled version,
// keeping its position so ordering never changes across the
// optimistic-append and persistence-confirmation phases.
func (s *Session) replace(id string, msg *Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.messages {
		if m.ID == id {
			s.messages[i] = msg
			return
		}
	}
}

// remove deletes the message with the given id from the projection.
func (s *Session) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.messages {
		if m.ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return
		}
	}
}

// indexOf returns the position of the message with the given id, or -1.
func (s *Session) indexOf(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// messageAt returns the message at position i, or nil when out of range.
func (s *Session) messageAt(i int) *Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.messages) {
		return nil
	}
	return s.messages[i]
}
