package handler

import (
	"encoding/json"
	"net/http"

	"github.com/minwoo-kang/localstar-service/internal/apperrors"
	"github.com/minwoo-kang/localstar-service/internal/service"
	"github.com/sirupsen/logrus"
)

// Handler exposes the HTTP API
type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

// NewHandler initializes a new handler
func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

// fail logs the full error server-side and returns the uniform failure
// envelope. Every failure kind maps to 400 so the client contract stays
// a single success/error pair.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.log.WithFields(logrus.Fields{
		"path": r.URL.Path,
		"kind": apperrors.KindOf(err).String(),
	}).Errorf("Request failed: %v", err)

	h.writeJSON(w, http.StatusBadRequest, map[string]any{
		"success": false,
		"error":   apperrors.UserMessage(err),
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.fail(w, r, apperrors.Wrap(apperrors.KindValidation, "invalid request body", err))
		return false
	}
	return true
}
