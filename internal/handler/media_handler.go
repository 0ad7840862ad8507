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

// Uploads above this size are rejected before they reach Telegram
const maxUploadBytes = 50 << 20

// MediaHandler relays messages/media and bot updates
type MediaHandler struct {
	messages service.MessageService
}

func NewMediaHandler(messages service.MessageService) *MediaHandler {
	return &MediaHandler{messages: messages}
}

// RegisterRoutes wires the message endpoints onto the router
func (h *MediaHandler) RegisterRoutes(r chi.Router) {
	r.Post("/messages", h.SendMessage)
	r.Get("/updates", h.GetUpdates)
}

// SendMessage handles POST /api/v1/messages. The body is either JSON (media by
// URL / file_id / plain text) or multipart form data (media by upload).
func (h *MediaHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		h.sendUpload(w, r)
		return
	}

	var req domain.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, errors.NewValidationError("invalid request body", nil))
		return
	}

	msg, err := h.messages.Send(r.Context(), &req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "message sent",
		"result":  msg,
	})
}

func (h *MediaHandler) sendUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, r, errors.NewValidationError("invalid multipart body", nil))
		return
	}

	kind := domain.MediaKind(r.FormValue("media_type"))
	chatID := r.FormValue("chat_id")
	caption := r.FormValue("caption")

	file, header, err := r.FormFile("media")
	if err != nil {
		respondError(w, r, errors.NewValidationError("media file is required", nil))
		return
	}
	defer file.Close()

	msg, err := h.messages.SendUpload(r.Context(), kind, chatID, header.Filename, header.Header.Get("Content-Type"), file, caption)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "message sent",
		"result":  msg,
	})
}

// GetUpdates handles GET /api/v1/updates, passing the raw vendor result through
func (h *MediaHandler) GetUpdates(w http.ResponseWriter, r *http.Request) {
	offset := parseIntQuery(r, "offset", 0)
	timeout := parseIntQuery(r, "timeout", 0)

	var allowed []string
	if raw := r.URL.Query().Get("allowed_updates"); raw != "" {
		allowed = strings.Split(raw, ",")
	}

	result, err := h.messages.Updates(r.Context(), offset, timeout, allowed)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"result": result})
}

func parseIntQuery(r *http.Request, key string, fallback int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			return parsed
		}
	}
	return fallback
}
