package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shopit/backend/internal/apperrors"
	"github.com/shopit/backend/internal/middlewares"
	"go.uber.org/zap"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"message": message})
}

// RespondAppError translates err into a status code and message.
// Errors without a kind are logged and reported as a generic 500.
func (h *BaseHandler) RespondAppError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status, message := apperrors.HTTPStatus(err)

	fields := []zap.Field{
		zap.String("operation", operation),
		middlewares.RequestIDField(r.Context()),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		h.Logger.Error("request failed", fields...)
	} else {
		h.Logger.Debug("request rejected", fields...)
	}

	h.RespondError(w, status, message)
}

// decodeJSON reads the request body into dst, answering 400 on malformed input
// and 413 when the body runs past the size cap
func (h *BaseHandler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if middlewares.IsBodyTooLarge(err) {
			h.RespondError(w, http.StatusRequestEntityTooLarge, middlewares.RequestTooLargeMessage)
			return false
		}
		h.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
