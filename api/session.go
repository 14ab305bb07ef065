package api

import (
	"net/http"
	"strconv"

	"github.com/docuchat/docuchat/internal/chat"
	"github.com/docuchat/docuchat/internal/log"
)

const (
	defaultConversationLimit = 20
	maxConversationLimit     = 100
)

// SessionHandler serves session bootstrap, teardown, prompt selection and
// conversation listing.
type SessionHandler struct {
	hub     *sessionHub
	manager *chat.Manager
	logger  log.Logger
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(hub *sessionHub, manager *chat.Manager, logger log.Logger) *SessionHandler {
	return &SessionHandler{hub: hub, manager: manager, logger: logger}
}

// RegisterRoutes registers the session endpoints on the mux.
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/session", h.handleBootstrap)
	mux.HandleFunc("DELETE /api/session", h.handleTeardown)
	mux.HandleFunc("POST /api/session/prompt", h.handleSelectPrompt)
	mux.HandleFunc("GET /api/conversations", h.handleListConversations)
}

// SessionView is the JSON projection of a bootstrapped session.
type SessionView struct {
	State          chat.State           `json:"state"`
	Profile        *chat.Profile        `json:"profile,omitempty"`
	Prompts        []*chat.SystemPrompt `json:"prompts,omitempty"`
	SelectedPrompt *chat.SystemPrompt   `json:"selectedPrompt,omitempty"`
	Conversation   *chat.Conversation   `json:"conversation,omitempty"`
	Messages       []*chat.Message      `json:"messages"`
	CanSend        bool                 `json:"canSend"`
}

func sessionView(sess *chat.Session) SessionView {
	messages := sess.Messages()
	if messages == nil {
		messages = []*chat.Message{}
	}
	return SessionView{
		State:          chat.StateReady,
		Profile:        sess.Profile(),
		Prompts:        sess.Prompts(),
		SelectedPrompt: sess.Prompt(),
		Conversation:   sess.Conversation(),
		Messages:       messages,
		CanSend:        sess.CanSend(),
	}
}

func (h *SessionHandler) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	profileID := r.URL.Query().Get("profile")

	sess, err := h.hub.open(r.Context(), profileID)
	if err != nil {
		writeChatError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, sessionView(sess))
}

func (h *SessionHandler) handleTeardown(w http.ResponseWriter, r *http.Request) {
	profileID := r.URL.Query().Get("profile")
	if profileID == "" {
		writeChatError(w, h.logger, chat.ErrNoProfileSpecified)
		return
	}

	h.hub.close(profileID)
	w.WriteHeader(http.StatusNoContent)
}

type selectPromptRequest struct {
	Profile  string `json:"profile"`
	PromptID string `json:"promptId"`
}

func (h *SessionHandler) handleSelectPrompt(w http.ResponseWriter, r *http.Request) {
	var req selectPromptRequest
	if !decodeJSON(w, h.logger, r, &req) {
		return
	}

	sess, err := h.hub.open(r.Context(), req.Profile)
	if err != nil {
		writeChatError(w, h.logger, err)
		return
	}

	if err := sess.SelectPrompt(req.PromptID); err != nil {
		writeChatError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, sessionView(sess))
}

// ConversationList is the JSON response for the conversation listing.
type ConversationList struct {
	Conversations []*chat.Conversation `json:"conversations"`
	Total         int                  `json:"total"`
	Limit         int                  `json:"limit"`
	Offset        int                  `json:"offset"`
}

func (h *SessionHandler) handleListConversations(w http.ResponseWriter, r *http.Request) {
	profileID := r.URL.Query().Get("profile")
	if profileID == "" {
		writeChatError(w, h.logger, chat.ErrNoProfileSpecified)
		return
	}

	limit := parseIntParam(r, "limit", defaultConversationLimit, 1, maxConversationLimit)
	offset := parseIntParam(r, "offset", 0, 0, 1<<30)

	convs, err := h.manager.ListConversations(r.Context(), profileID)
	if err != nil {
		writeChatError(w, h.logger, err)
		return
	}

	total := len(convs)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := convs[offset:end]
	if page == nil {
		page = []*chat.Conversation{}
	}

	writeJSON(w, h.logger, http.StatusOK, ConversationList{
		Conversations: page,
		Total:         total,
		Limit:         limit,
		Offset:        offset,
	})
}

// parseIntParam reads an integer query parameter, clamping to [min, max]
// and falling back to def on absence or malformed input.
func parseIntParam(r *http.Request, name string, def, min, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
