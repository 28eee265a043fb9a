package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/minwoo-kang/localstar-service/internal/middleware"
	"github.com/minwoo-kang/localstar-service/internal/models"
)

type registrationRequest struct {
	DistrictCode string `json:"district_code"`
	Name         string `json:"name"`
	Handle       string `json:"handle"`
}

// Regions returns the administrative region tree
func (h *Handler) Regions(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"regions": h.svc.Provinces(),
	})
}

// Influencers returns the ranked influencers of a district
func (h *Handler) Influencers(w http.ResponseWriter, r *http.Request) {
	influencers, err := h.svc.ListInfluencers(mux.Vars(r)["code"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if influencers == nil {
		influencers = []models.Influencer{}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"influencers": influencers,
	})
}

// SubmitRegistration stores a registration request for the logged-in member
func (h *Handler) SubmitRegistration(w http.ResponseWriter, r *http.Request) {
	tossID, _ := r.Context().Value(middleware.MemberIDKey).(string)

	var req registrationRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.svc.SubmitRegistration(r.Context(), tossID, req.DistrictCode, req.Name, req.Handle)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"registration": result.Registration,
		"upload_url":   result.UploadURL,
	})
}

// ListRegistrations returns registration requests filtered by status
func (h *Handler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = models.RegistrationPending
	}

	regs, err := h.svc.ListRegistrations(status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if regs == nil {
		regs = []models.Registration{}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"registrations": regs,
	})
}

// ApproveRegistration publishes a pending registration as an influencer
func (h *Handler) ApproveRegistration(w http.ResponseWriter, r *http.Request) {
	influencer, err := h.svc.ApproveRegistration(mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"influencer": influencer,
	})
}

// RejectRegistration rejects a pending registration
func (h *Handler) RejectRegistration(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RejectRegistration(mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Registration rejected",
	})
}
