package knowledge

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/webcraft-studio/chatbot-platform/pkg/logging"
)

// Handler exposes the admin edit path for knowledge entries.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a knowledge admin handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /admin/knowledge.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list knowledge entries", "error", err)
		http.Error(w, "Failed to list entries", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// Create handles POST /admin/knowledge.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var entry Entry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.repo.Create(r.Context(), &entry); err != nil {
		if errors.Is(err, ErrMissingIntent) || errors.Is(err, ErrMissingResponse) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to create knowledge entry", "error", err, "intent", entry.Intent)
		http.Error(w, "Failed to create entry", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, entry)
}

// Update handles PUT /admin/knowledge/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var entry Entry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	entry.ID = chi.URLParam(r, "id")
	if err := h.repo.Update(r.Context(), &entry); err != nil {
		switch {
		case errors.Is(err, ErrEntryNotFound):
			http.Error(w, "Entry not found", http.StatusNotFound)
		case errors.Is(err, ErrMissingIntent), errors.Is(err, ErrMissingResponse):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("failed to update knowledge entry", "error", err, "id", entry.ID)
			http.Error(w, "Failed to update entry", http.StatusInternalServerError)
		}
		return
	}
	h.writeJSON(w, http.StatusOK, entry)
}

// Delete handles DELETE /admin/knowledge/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			http.Error(w, "Entry not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete knowledge entry", "error", err, "id", id)
		http.Error(w, "Failed to delete entry", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
