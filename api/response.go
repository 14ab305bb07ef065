package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/docuchat/docuchat/internal/chat"
	"github.com/docuchat/docuchat/internal/log"
)

// writeJSON writes a JSON response with the given status code.
// If encoding fails after WriteHeader there is no way to notify the client;
// the error is logged and the response left as sent.
func writeJSON(w http.ResponseWriter, logger log.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// maxBodySize bounds request bodies (1 MiB).
const maxBodySize = 1 << 20

// decodeJSON decodes the request body into dst. On failure it writes a
// 400 response and returns false.
func decodeJSON(w http.ResponseWriter, logger log.Logger, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, logger, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// ErrorResponse represents a JSON error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, logger log.Logger, status int, err string, message string) {
	writeJSON(w, logger, status, ErrorResponse{Error: err, Message: message})
}

// writeChatError translates the conversation error taxonomy to HTTP.
//
//	Unauthenticated              → 401 (terminal, full-screen error state)
//	NotFound (profile/conv/msg)  → 404 (terminal)
//	Validation (empty query,
//	  no active prompt, ...)     → 422 (blocks the action, recoverable)
//	Turn in flight               → 409
//	Session closed               → 410
//	anything else                → 500
func writeChatError(w http.ResponseWriter, logger log.Logger, err error) {
	switch {
	case errors.Is(err, chat.ErrUnauthenticated):
		writeError(w, logger, http.StatusUnauthorized, "unauthenticated", err.Error())
	case errors.Is(err, chat.ErrProfileNotFound),
		errors.Is(err, chat.ErrConversationNotFound),
		errors.Is(err, chat.ErrMessageNotFound):
		writeError(w, logger, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, chat.ErrNoProfileSpecified),
		errors.Is(err, chat.ErrEmptyQuery),
		errors.Is(err, chat.ErrNoActivePrompt),
		errors.Is(err, chat.ErrPromptNotSelectable),
		errors.Is(err, chat.ErrCorruptedOrder):
		writeError(w, logger, http.StatusUnprocessableEntity, "validation", err.Error())
	case errors.Is(err, chat.ErrTurnInFlight):
		writeError(w, logger, http.StatusConflict, "turn_in_flight", err.Error())
	case errors.Is(err, chat.ErrSessionClosed):
		writeError(w, logger, http.StatusGone, "session_closed", err.Error())
	default:
		logger.Error("internal error", "error", err)
		writeError(w, logger, http.StatusInternalServerError, "internal", "internal server error")
	}
}
