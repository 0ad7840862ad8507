package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Sepehrmasihpour/seshat-backend/internal/domain"
	"github.com/Sepehrmasihpour/seshat-backend/internal/service"
	"github.com/Sepehrmasihpour/seshat-backend/pkg/errors"
)

// ProposalHandler exposes the group-photo workflow: direct photo changes and
// the proposal/vote coordinator
type ProposalHandler struct {
	proposals service.ProposalService
	photos    service.PhotoService
}

func NewProposalHandler(proposals service.ProposalService, photos service.PhotoService) *ProposalHandler {
	return &ProposalHandler{proposals: proposals, photos: photos}
}

// RegisterRoutes wires the public proposal endpoints onto the router
func (h *ProposalHandler) RegisterRoutes(r chi.Router) {
	r.Post("/group/photo/proposals", h.OpenProposal)
}

// RegisterProtectedRoutes wires the admin endpoints
func (h *ProposalHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/group/photo", h.ChangePhoto)
	r.Post("/group/photo/proposals/{category}/close", h.CloseVote)
}

// OpenProposal handles POST /api/v1/group/photo/proposals. Returns as soon as
// the poll is posted; the vote resolves in the background.
func (h *ProposalHandler) OpenProposal(w http.ResponseWriter, r *http.Request) {
	var req domain.OpenProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, errors.NewValidationError("invalid request body", nil))
		return
	}

	if req.ChatID == 0 {
		respondError(w, r, errors.NewValidationError("chat_id is required", nil))
		return
	}
	if strings.TrimSpace(req.FileID) == "" {
		respondError(w, r, errors.NewValidationError("file_id is required", nil))
		return
	}

	resp, err := h.proposals.Open(r.Context(), &req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusAccepted, resp)
}

// CloseVote handles POST /api/v1/group/photo/proposals/{category}/close. It
// concludes the running vote; the watcher tallies within one polling interval.
func (h *ProposalHandler) CloseVote(w http.ResponseWriter, r *http.Request) {
	category := domain.VoteCategory(chi.URLParam(r, "category"))

	if err := h.proposals.CloseVote(r.Context(), category); err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "closing"})
}

// ChangePhoto handles POST /api/v1/group/photo, applying a photo directly
// without a vote
func (h *ProposalHandler) ChangePhoto(w http.ResponseWriter, r *http.Request) {
	var req domain.ChangePhotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, errors.NewValidationError("invalid request body", nil))
		return
	}
	if strings.TrimSpace(req.FileID) == "" {
		respondError(w, r, errors.NewValidationError("file_id is required", nil))
		return
	}

	if err := h.photos.Apply(r.Context(), req.FileID); err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "photo updated"})
}
