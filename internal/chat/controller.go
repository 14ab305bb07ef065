package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// State is the externally observable controller state for one open view.
type State string

const (
	// StateLoading means the bootstrap sequence has not finished.
	StateLoading State = "loading"

	// StateError means the view is terminally broken for the current
	// launch: missing profile parameter, unknown profile, or no
	// authenticated user.
	StateError State = "error"

	// StateReady means profile and prompts are resolved and the chat
	// surface may be shown.
	StateReady State = "ready"
)

// Controller binds launch parameters to a ready Session. The bootstrap order
// is fixed: authentication, profile resolution, system-prompt list load,
// conversation resume. The chat surface is never exposed with an unresolved
// profile; prompt resolution may legitimately yield zero active prompts, in
// which case the session is ready but blocked from sending.
type Controller struct {
	auth    AuthProvider
	manager *Manager
	prompts PromptStore
	logger  *slog.Logger
}

// NewController creates a Controller. logger may be nil.
func NewController(auth AuthProvider, manager *Manager, prompts PromptStore, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		auth:    auth,
		manager: manager,
		prompts: prompts,
		logger:  logger,
	}
}

// View is the result of a bootstrap: the state plus, when ready, the live
// session.
type View struct {
	State   State
	Session *Session

	// Err is set when State is StateError.
	Err error
}

// Open runs the bootstrap for the profile id carried in the launch
// parameters. An absent or unresolvable profile id is an error state, not a
// crash. The returned View's Err preserves the taxonomy sentinels for
// errors.Is checks.
func (c *Controller) Open(ctx context.Context, profileID string) (*View, error) {
	user, err := c.auth.CurrentUser(ctx)
	if err != nil {
		return &View{State: StateError, Err: fmt.Errorf("resolve current user: %w", err)}, err
	}
	if user == nil {
		err := ErrUnauthenticated
		return &View{State: StateError, Err: err}, err
	}

	if profileID == "" {
		err := ErrNoProfileSpecified
		return &View{State: StateError, Err: err}, err
	}

	profile, err := c.manager.ResolveProfile(ctx, profileID)
	if err != nil {
		c.logger.Warn("profile resolution failed", "profile", profileID, "error", err)
		return &View{State: StateError, Err: err}, err
	}

	prompts, err := c.prompts.ActivePrompts(ctx)
	if err != nil {
		return &View{State: StateError, Err: fmt.Errorf("load system prompts: %w", err)}, err
	}
	active := make([]*SystemPrompt, 0, len(prompts))
	for _, p := range prompts {
		if p.IsActive {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		c.logger.Warn("no active system prompts; sending will be blocked", "profile", profileID)
	}

	conv, messages, err := c.manager.ResumeOrStart(ctx, profileID)
	if err != nil {
		return &View{State: StateError, Err: err}, err
	}

	sess := NewSession(profile, active, conv, messages)
	c.logger.Debug("session ready",
		"profile", profile.ID,
		"prompts", len(active),
		"resumed", conv != nil,
		"user", user.ID)
	return &View{State: StateReady, Session: sess}, nil
}

// IsTerminal reports whether err belongs to the terminal class that a UI
// should render as a full-screen error (redirect), rather than inline.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrProfileNotFound) ||
		errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrNoProfileSpecified) ||
		errors.Is(err, ErrConversationNotFound)
}
