package api

import (
	"net/http"

	"github.com/docuchat/docuchat/internal/chat"
	"github.com/docuchat/docuchat/internal/log"
	"github.com/docuchat/docuchat/internal/source"
)

// ChatHandler serves turn execution, retry and source aggregation.
type ChatHandler struct {
	hub      *sessionHub
	executor *chat.Executor
	logger   log.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(hub *sessionHub, executor *chat.Executor, logger log.Logger) *ChatHandler {
	return &ChatHandler{hub: hub, executor: executor, logger: logger}
}

// RegisterRoutes registers the chat endpoints on the mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.handleSend)
	mux.HandleFunc("POST /api/chat/retry", h.handleRetry)
	mux.HandleFunc("GET /api/sources", h.handleSources)
}

type sendRequest struct {
	Profile string `json:"profile"`
	Query   string `json:"query"`
}

type retryRequest struct {
	Profile   string `json:"profile"`
	MessageID string `json:"messageId"`
}

// TurnResponse is the JSON projection of one executed turn. Failure is set
// when the turn did not produce a real answer; the assistant message then
// carries the failed placeholder whose id the retry endpoint accepts.
type TurnResponse struct {
	UserMessage      *chat.Message      `json:"userMessage"`
	AssistantMessage *chat.Message      `json:"assistantMessage"`
	Conversation     *chat.Conversation `json:"conversation"`
	Failure          *chat.TurnError    `json:"failure,omitempty"`
}

func (h *ChatHandler) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if !decodeJSON(w, h.logger, r, &req) {
		return
	}

	sess, err := h.hub.open(r.Context(), req.Profile)
	if err != nil {
		writeChatError(w, h.logger, err)
		return
	}

	result, err := h.executor.Send(r.Context(), sess, req.Query)
	if err != nil {
		writeChatError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, turnResponse(sess, result))
}

func (h *ChatHandler) handleRetry(w http.ResponseWriter, r *http.Request) {
	var req retryRequest
	if !decodeJSON(w, h.logger, r, &req) {
		return
	}

	sess, err := h.hub.open(r.Context(), req.Profile)
	if err != nil {
		writeChatError(w, h.logger, err)
		return
	}

	result, err := h.executor.Retry(r.Context(), sess, req.MessageID)
	if err != nil {
		writeChatError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, turnResponse(sess, result))
}

func turnResponse(sess *chat.Session, result *chat.TurnResult) TurnResponse {
	return TurnResponse{
		UserMessage:      result.UserMessage,
		AssistantMessage: result.AssistantMessage,
		Conversation:     sess.Conversation(),
		Failure:          result.Err,
	}
}

// SourcesResponse carries the deduplicated citation registry for the
// profile's resumed conversation, plus its aggregates.
type SourcesResponse struct {
	Sources []*source.Cited `json:"sources"`
	Stats   source.Stats    `json:"stats"`
}

func (h *ChatHandler) handleSources(w http.ResponseWriter, r *http.Request) {
	profileID := r.URL.Query().Get("profile")

	sess, err := h.hub.open(r.Context(), profileID)
	if err != nil {
		writeChatError(w, h.logger, err)
		return
	}

	registry := sess.SourceRegistry()
	cited := registry.Sources()
	if cited == nil {
		cited = []*source.Cited{}
	}

	writeJSON(w, h.logger, http.StatusOK, SourcesResponse{
		Sources: cited,
		Stats:   registry.Stats(),
	})
}
