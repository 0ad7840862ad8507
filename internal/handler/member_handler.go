package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Sepehrmasihpour/seshat-backend/internal/domain"
	"github.com/Sepehrmasihpour/seshat-backend/internal/service"
	"github.com/Sepehrmasihpour/seshat-backend/pkg/errors"
)

// MemberHandler exposes group-member CRUD
type MemberHandler struct {
	membership service.MembershipService
}

func NewMemberHandler(membership service.MembershipService) *MemberHandler {
	return &MemberHandler{membership: membership}
}

// RegisterRoutes wires the member endpoints onto the router
func (h *MemberHandler) RegisterRoutes(r chi.Router) {
	r.Get("/members/count", h.Count)
	r.Get("/members/{chatID}", h.Lookup)
}

// RegisterProtectedRoutes wires the mutating member endpoints
func (h *MemberHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Put("/members/{chatID}", h.Register)
	r.Delete("/members/{chatID}", h.Remove)
}

// Lookup handles GET /api/v1/members/{chatID}
func (h *MemberHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	chatID, err := parseChatID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	member, err := h.membership.Lookup(r.Context(), chatID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, member)
}

// Register handles PUT /api/v1/members/{chatID}
func (h *MemberHandler) Register(w http.ResponseWriter, r *http.Request) {
	chatID, err := parseChatID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req domain.RegisterMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, errors.NewValidationError("invalid request body", nil))
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Username) == "" {
		respondError(w, r, errors.NewValidationError("name and username are required", nil))
		return
	}

	resp, err := h.membership.Register(r.Context(), chatID, req.Name, req.Username)
	if err != nil {
		respondError(w, r, err)
		return
	}

	status := http.StatusOK
	if resp.Outcome == domain.RegisterAdded {
		status = http.StatusCreated
	}
	respondJSON(w, status, resp)
}

// Remove handles DELETE /api/v1/members/{chatID}
func (h *MemberHandler) Remove(w http.ResponseWriter, r *http.Request) {
	chatID, err := parseChatID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.membership.Remove(r.Context(), chatID); err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// Count handles GET /api/v1/members/count
func (h *MemberHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.membership.Count(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, domain.MemberCountResponse{Count: count})
}

func parseChatID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "chatID")
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.NewValidationError("chat ID must be an integer", map[string]interface{}{"chat_id": raw})
	}
	return chatID, nil
}
