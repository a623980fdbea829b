package leads

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/webcraft-studio/chatbot-platform/internal/conversation"
	"github.com/webcraft-studio/chatbot-platform/pkg/logging"
)

// ConversationLinker mirrors captured contact details into the session
// context so the chatbot stops prompting for them.
type ConversationLinker interface {
	AttachLead(ctx context.Context, sessionID string, lead conversation.LeadInfo) error
}

// Notifier alerts the team about a new lead.
type Notifier interface {
	NotifyLead(ctx context.Context, lead *Lead) error
}

// Handler handles HTTP requests for leads
type Handler struct {
	repo     Repository
	linker   ConversationLinker
	notifier Notifier
	logger   *logging.Logger
}

// NewHandler creates a new leads handler. Linker and notifier are optional.
func NewHandler(repo Repository, linker ConversationLinker, notifier Notifier, logger *logging.Logger) *Handler {
	if repo == nil {
		panic("leads: repository cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:     repo,
		linker:   linker,
		notifier: notifier,
		logger:   logger,
	}
}

// Create handles POST /api/leads requests
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLeadRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Source == "" {
		req.Source = "chat_widget"
	}

	lead, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrInvalidName) || errors.Is(err, ErrMissingContact) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to create lead", "error", err)
		http.Error(w, "Failed to create lead", http.StatusInternalServerError)
		return
	}

	h.logger.Info("lead created", "id", lead.ID, "name", lead.Name, "session_id", lead.SessionID)

	// Mirroring and notification are best-effort: the lead row is already
	// durable, so neither failure should fail the request.
	if h.linker != nil && lead.SessionID != "" {
		if err := h.linker.AttachLead(r.Context(), lead.SessionID, conversation.LeadInfo{
			Name:  lead.Name,
			Email: lead.Email,
			Phone: lead.Phone,
		}); err != nil {
			h.logger.Warn("failed to attach lead to conversation", "error", err, "session_id", lead.SessionID)
		}
	}
	if h.notifier != nil {
		if err := h.notifier.NotifyLead(r.Context(), lead); err != nil {
			h.logger.Warn("failed to send lead notification", "error", err, "lead_id", lead.ID)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(lead)
}

// ListLeadsResponse is the response for listing leads
type ListLeadsResponse struct {
	Leads  []*Lead `json:"leads"`
	Count  int     `json:"count"`
	Offset int     `json:"offset"`
	Limit  int     `json:"limit"`
}

// List handles GET /admin/leads requests
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	found, err := h.repo.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("failed to list leads", "error", err)
		http.Error(w, "failed to list leads", http.StatusInternalServerError)
		return
	}

	response := ListLeadsResponse{
		Leads:  found,
		Count:  len(found),
		Offset: offset,
		Limit:  limit,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
