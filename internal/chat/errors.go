package chat

import (
	"errors"
	"fmt"
)

// Sentinel errors for the conversation subsystem. Check with errors.Is.
var (
	// ErrProfileNotFound indicates the profile does not exist or is not
	// accessible to the current actor. Terminal for the current view.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrConversationNotFound indicates the conversation does not exist.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrMessageNotFound indicates the message id is unknown to the session.
	ErrMessageNotFound = errors.New("message not found")

	// ErrUnauthenticated indicates no authenticated user. Terminal.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNoProfileSpecified indicates the launch parameters carried no
	// profile identifier.
	ErrNoProfileSpecified = errors.New("no profile specified")

	// ErrEmptyQuery rejects an empty or whitespace-only query.
	// Recoverable by user input change.
	ErrEmptyQuery = errors.New("empty query")

	// ErrTurnInFlight rejects a send while another exchange is pending for
	// the same conversation.
	ErrTurnInFlight = errors.New("turn already in flight")

	// ErrNoActivePrompt indicates no system prompt is bound, either because
	// none was selected or because zero active prompts exist. Sending is
	// blocked until one is bound.
	ErrNoActivePrompt = errors.New("no active system prompt")

	// ErrPromptNotSelectable rejects selecting a prompt that is inactive or
	// not in the loaded prompt list.
	ErrPromptNotSelectable = errors.New("system prompt not selectable")

	// ErrSessionClosed indicates the session was torn down; late operations
	// against it are no-ops that report this error.
	ErrSessionClosed = errors.New("session closed")

	// ErrCorruptedOrder indicates the message preceding a failed turn is not
	// the user message that started it. A retry against such a conversation
	// is refused rather than guessing.
	ErrCorruptedOrder = errors.New("corrupted message ordering")
)

// FailureKind distinguishes the two recoverable turn failure classes so the
// UI can retry appropriately.
type FailureKind string

const (
	// FailureGeneration means the answer-generation collaborator failed.
	// The turn can be retried from its originating user message.
	FailureGeneration FailureKind = "generation"

	// FailurePersistence means the durable write failed after generation.
	// The in-memory messages are kept; only the write needs repeating.
	FailurePersistence FailureKind = "persistence"
)

// TurnError is a failure attached to a specific message of a turn.
type TurnError struct {
	Kind FailureKind `json:"kind"`

	// MessageID addresses the message carrying the failure, so a retry can
	// reference it.
	MessageID string `json:"messageId"`

	Err error `json:"-"`

	// Message is the user-presentable failure description.
	Message string `json:"message"`
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("%s failure on message %s: %v", e.Kind, e.MessageID, e.Err)
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

func newTurnError(kind FailureKind, messageID string, err error) *TurnError {
	return &TurnError{
		Kind:      kind,
		MessageID: messageID,
		Err:       err,
		Message:   err.Error(),
	}
}
