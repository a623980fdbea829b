package chat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/webcraft-studio/chatbot-platform/internal/conversation"
	"github.com/webcraft-studio/chatbot-platform/internal/llm"
	"github.com/webcraft-studio/chatbot-platform/pkg/logging"
)

// maxMessageLength bounds a single visitor message.
const maxMessageLength = 1000

// ConversationService is the slice of the conversation manager the HTTP
// surface needs.
type ConversationService interface {
	ProcessMessage(ctx context.Context, sessionID, message string, onChunk llm.ChunkHandler) (*conversation.Response, error)
	History(ctx context.Context, sessionID string) ([]conversation.Message, error)
}

// Request is the POST body for a chat turn.
type Request struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	Streaming *bool  `json:"streaming,omitempty"`
}

// streamFrame is one SSE data payload. Content is cumulative.
type streamFrame struct {
	Content           string   `json:"content"`
	Finished          bool     `json:"finished"`
	SessionID         string   `json:"sessionId"`
	Intent            string   `json:"intent,omitempty"`
	SuggestedActions  []string `json:"suggestedActions,omitempty"`
	LeadCapturePrompt bool     `json:"leadCapturePrompt,omitempty"`
	Error             string   `json:"error,omitempty"`
}

// Handler serves the public chat endpoints.
type Handler struct {
	svc           ConversationService
	llmConfigured bool
	logger        *logging.Logger
}

// NewHandler creates the chat handler.
func NewHandler(svc ConversationService, llmConfigured bool, logger *logging.Logger) *Handler {
	if svc == nil {
		panic("chat: conversation service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, llmConfigured: llmConfigured, logger: logger}
}

// Message handles POST /api/chat and /api/chat/message. Responses stream as
// SSE unless the client asks for JSON with "streaming": false.
func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" || len(message) > maxMessageLength {
		http.Error(w, fmt.Sprintf("Message must be between 1 and %d characters", maxMessageLength), http.StatusBadRequest)
		return
	}
	if !h.llmConfigured {
		http.Error(w, "Chat is not available right now", http.StatusServiceUnavailable)
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = newSessionID()
	}

	streaming := req.Streaming == nil || *req.Streaming
	flusher, canStream := w.(http.Flusher)
	if streaming && canStream {
		h.streamMessage(w, r, flusher, sessionID, message)
		return
	}

	resp, err := h.svc.ProcessMessage(r.Context(), sessionID, message, nil)
	if err != nil {
		h.logger.Error("chat turn failed", "error", err, "session_id", sessionID)
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *Handler) streamMessage(w http.ResponseWriter, r *http.Request, flusher http.Flusher, sessionID, message string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	writeFrame := func(frame streamFrame) {
		data, err := json.Marshal(frame)
		if err != nil {
			h.logger.Error("failed to encode stream frame", "error", err)
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	// The final chunk is suppressed here so the closing frame can carry the
	// turn metadata along with the full text.
	resp, err := h.svc.ProcessMessage(r.Context(), sessionID, message, func(chunk llm.StreamChunk) {
		if chunk.Finished {
			return
		}
		writeFrame(streamFrame{Content: chunk.Content, SessionID: sessionID})
	})
	if err != nil {
		h.logger.Error("chat turn failed mid-stream", "error", err, "session_id", sessionID)
		writeFrame(streamFrame{SessionID: sessionID, Finished: true, Error: "Something went wrong. Please try again."})
		return
	}

	writeFrame(streamFrame{
		Content:           resp.Message,
		Finished:          true,
		SessionID:         sessionID,
		Intent:            resp.Intent,
		SuggestedActions:  resp.SuggestedActions,
		LeadCapturePrompt: resp.LeadCapturePrompt,
	})
}

// History handles GET /api/chat/history?sessionId=...
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("sessionId"))
	if sessionID == "" {
		http.Error(w, "sessionId is required", http.StatusBadRequest)
		return
	}

	messages, err := h.svc.History(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to load history", "error", err, "session_id", sessionID)
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"sessionId": sessionID,
		"messages":  messages,
	})
}

// newSessionID returns a 32-char hex token, falling back to a UUID if the
// system randomness source fails.
func newSessionID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(buf[:])
}
