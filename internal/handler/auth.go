package handler

import (
	"net/http"
)

type loginRequest struct {
	Code      string `json:"code"`
	IsSandbox bool   `json:"is_sandbox"`
}

type unlinkRequest struct {
	TossID    string `json:"toss_id"`
	IsSandbox bool   `json:"is_sandbox"`
}

// TossLogin exchanges an authorization code for a member record
func (h *Handler) TossLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	member, token, err := h.svc.Login(r.Context(), req.Code, req.IsSandbox)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"member":  member,
		"token":   token,
	})
}

// TossUnlink revokes the provider link and deletes the member
func (h *Handler) TossUnlink(w http.ResponseWriter, r *http.Request) {
	var req unlinkRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.svc.Unlink(r.Context(), req.TossID, req.IsSandbox); err != nil {
		h.fail(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Successfully unlinked",
	})
}
