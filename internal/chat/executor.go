package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// localIDPrefix namespaces optimistic, session-local message ids away from
// server-issued ids. A later server id can therefore never collide with an
// optimistic one, and reconciliation is a plain in-place swap.
const localIDPrefix = "local-"

// Executor runs one user→assistant exchange against a bound
// (profile, systemPrompt, conversation?) context.
//
// Executor is stateless; all per-conversation state lives on the Session.
// At most one exchange is in flight per session at a time, enforced by the
// session's in-flight flag at entry, not by locking — there is exactly one
// writer.
type Executor struct {
	store     ConversationStore
	generator Generator
	logger    *slog.Logger

	// now is injectable for deterministic tests.
	now func() time.Time
}

// NewExecutor creates an Executor. logger may be nil.
func NewExecutor(store ConversationStore, generator Generator, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		store:     store,
		generator: generator,
		logger:    logger,
		now:       time.Now,
	}
}

// Send executes one turn.
//
// Rejections (returned as errors, nothing appended): empty or
// whitespace-only query, a turn already in flight, unbound profile or
// system prompt, closed session.
//
// On the first turn of a profile the conversation is created lazily, titled
// with the query's first 50 characters. Creation and the first user-message
// append are one logical unit: if creation fails no message is recorded.
//
// Failures after the user message is appended never remove it. They are
// attached to the affected message as a TurnError and reported on the
// TurnResult, so the UI can offer a retry without losing the conversation.
func (e *Executor) Send(ctx context.Context, sess *Session, query string) (*TurnResult, error) {
	if err := sess.beginTurn(query); err != nil {
		return nil, err
	}
	defer sess.endTurn()

	profile, prompt, conv, history := sess.snapshot()

	// Lazy conversation creation, before anything is appended.
	if conv == nil {
		created, err := e.store.CreateConversation(ctx, profile.ID, TruncateTitle(strings.TrimSpace(query)), prompt.ID)
		if err != nil {
			e.logger.Error("conversation creation failed", "profile", profile.ID, "error", err)
			return nil, newTurnError(FailurePersistence, "", fmt.Errorf("create conversation: %w", err))
		}
		conv = created
		sess.bindConversation(created)
		e.logger.Debug("created conversation", "id", created.ID, "title", created.Title)
	}

	// Optimistic append: the user sees their message before the answer.
	userMsg := &Message{
		ID:             e.newLocalID(),
		ConversationID: conv.ID,
		Role:           RoleUser,
		Content:        query,
		Status:         StatusCompleted,
		SystemPromptID: prompt.ID,
		CreatedAt:      e.now(),
	}
	if !sess.append(userMsg) {
		return nil, ErrSessionClosed
	}

	return e.completeTurn(ctx, sess, conv, profile, prompt, history, userMsg)
}

// Retry re-runs the turn that produced the failed message. The originating
// user message is the one chronologically preceding it in the same
// conversation; retry re-invokes generation with its original content and,
// on success, appends a new assistant message. It never duplicates the user
// message.
//
// A persistence-only failure (the answer exists, the write did not) is
// retried without regenerating.
func (e *Executor) Retry(ctx context.Context, sess *Session, messageID string) (*TurnResult, error) {
	idx := sess.indexOf(messageID)
	if idx < 0 {
		return nil, fmt.Errorf("retry %s: %w", messageID, ErrMessageNotFound)
	}
	failed := sess.messageAt(idx)
	if failed.Failure == nil && failed.Status != StatusFailed {
		return nil, fmt.Errorf("retry %s: message did not fail", messageID)
	}

	// Defensive invariant check: the preceding message must be the user
	// turn that started the exchange.
	userMsg := sess.messageAt(idx - 1)
	if userMsg == nil || userMsg.Role != RoleUser {
		return nil, fmt.Errorf("retry %s: %w", messageID, ErrCorruptedOrder)
	}

	if err := sess.beginTurn(userMsg.Content); err != nil {
		return nil, err
	}
	defer sess.endTurn()

	profile, prompt, conv, history := sess.snapshot()
	if conv == nil {
		// A failed message cannot exist without a conversation.
		return nil, fmt.Errorf("retry %s: %w", messageID, ErrConversationNotFound)
	}

	if failed.Failure != nil && failed.Failure.Kind == FailurePersistence && failed.Status == StatusCompleted {
		// The answer was generated; only the durable write is missing.
		return e.persistTurn(ctx, sess, conv, prompt, userMsg, failed)
	}

	// Generation failure: drop the placeholder and re-run the exchange
	// from the original user message.
	sess.remove(messageID)
	history = trimHistoryAfter(history, userMsg.ID)
	return e.completeTurn(ctx, sess, conv, profile, prompt, history, userMsg)
}

// completeTurn runs generation and persistence for an already-appended user
// message. history must not include userMsg itself.
func (e *Executor) completeTurn(ctx context.Context, sess *Session, conv *Conversation, profile *Profile, prompt *SystemPrompt, history []*Message, userMsg *Message) (*TurnResult, error) {
	result, err := e.generator.Generate(ctx, &GenerateRequest{
		Query:   userMsg.Content,
		Profile: profile,
		Prompt:  prompt,
		History: history,
	})

	// The user may have navigated away while generation was running; the
	// resolution must be a no-op against a torn-down session.
	if sess.Closed() {
		e.logger.Debug("dropping turn resolution for closed session", "conversation", conv.ID)
		return nil, ErrSessionClosed
	}

	if err != nil {
		// No bogus assistant answer. A failed placeholder keeps the turn
		// addressable for retry by message id.
		placeholder := &Message{
			ID:             e.newLocalID(),
			ConversationID: conv.ID,
			Role:           RoleAssistant,
			Status:         StatusFailed,
			SystemPromptID: prompt.ID,
			CreatedAt:      e.now(),
		}
		placeholder.Failure = newTurnError(FailureGeneration, placeholder.ID, err)
		sess.append(placeholder)
		e.logger.Warn("generation failed", "conversation", conv.ID, "error", err)
		return &TurnResult{UserMessage: userMsg, AssistantMessage: placeholder, Err: placeholder.Failure}, nil
	}

	assistantMsg := &Message{
		ID:             e.newLocalID(),
		ConversationID: conv.ID,
		Role:           RoleAssistant,
		Content:        result.Content,
		Status:         StatusCompleted,
		SystemPromptID: prompt.ID,
		CreatedAt:      e.now(),
		Sources:        result.Sources,
	}
	if !sess.append(assistantMsg) {
		return nil, ErrSessionClosed
	}

	return e.persistTurn(ctx, sess, conv, prompt, userMsg, assistantMsg)
}

// persistTurn writes the user and assistant messages to the durable store,
// reconciling optimistic ids to server-issued ones in place. A write failure
// keeps the in-memory messages (the user must not lose their typed query)
// and is marked as a persistence failure, distinguishable from a generation
// failure for retry purposes.
func (e *Executor) persistTurn(ctx context.Context, sess *Session, conv *Conversation, prompt *SystemPrompt, userMsg, assistantMsg *Message) (*TurnResult, error) {
	if isLocalID(userMsg.ID) {
		stored, err := e.store.CreateMessage(ctx, conv.ID, CreateMessageParams{
			Role:           RoleUser,
			Content:        userMsg.Content,
			SystemPromptID: prompt.ID,
		})
		if err != nil {
			return e.persistFailed(sess, userMsg, assistantMsg, err)
		}
		sess.replace(userMsg.ID, stored)
		userMsg = stored
	}

	stored, err := e.store.CreateMessage(ctx, conv.ID, CreateMessageParams{
		Role:           RoleAssistant,
		Content:        assistantMsg.Content,
		SystemPromptID: prompt.ID,
		Sources:        assistantMsg.Sources,
	})
	if err != nil {
		return e.persistFailed(sess, userMsg, assistantMsg, err)
	}
	sess.replace(assistantMsg.ID, stored)

	e.logger.Debug("turn completed",
		"conversation", conv.ID,
		"user_message", userMsg.ID,
		"assistant_message", stored.ID)
	return &TurnResult{UserMessage: userMsg, AssistantMessage: stored}, nil
}

func (e *Executor) persistFailed(sess *Session, userMsg, assistantMsg *Message, err error) (*TurnResult, error) {
	turnErr := newTurnError(FailurePersistence, assistantMsg.ID, err)
	assistantMsg.Failure = turnErr
	sess.replace(assistantMsg.ID, assistantMsg)
	e.logger.Error("persistence failed", "message", assistantMsg.ID, "error", err)
	return &TurnResult{UserMessage: userMsg, AssistantMessage: assistantMsg, Err: turnErr}, nil
}

// newLocalID generates an id unique within the session: time-based with a
// random suffix.
func (e *Executor) newLocalID() string {
	return fmt.Sprintf("%s%d-%s", localIDPrefix, e.now().UnixNano(), uuid.NewString()[:8])
}

func isLocalID(id string) bool {
	return strings.HasPrefix(id, localIDPrefix)
}

// trimHistoryAfter returns history truncated to exclude the message with the
// given id and everything after it.
func trimHistoryAfter(history []*Message, id string) []*Message {
	for i, m := range history {
		if m.ID == id {
			return history[:i]
		}
	}
	return history
}
