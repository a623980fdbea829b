package conversation

import (
	"errors"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	// ErrContextNotFound signals no stored context for the session.
	ErrContextNotFound = errors.New("conversation: context not found")

	// ErrRevisionConflict signals a concurrent writer advanced the stored
	// revision between our load and save.
	ErrRevisionConflict = errors.New("conversation: revision conflict")
)

// Message is one turn of the transcript. Intent and Confidence are only set
// on user messages that matched a knowledge entry.
type Message struct {
	ID         string    `json:"id"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	Intent     string    `json:"intent,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
}

// LeadInfo is contact data attached to a session once the visitor shares it.
type LeadInfo struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Context is the full per-session conversation state. Revision guards
// concurrent saves: every successful durable write increments it, and a save
// against a stale revision fails with ErrRevisionConflict.
type Context struct {
	SessionID       string    `json:"sessionId"`
	Messages        []Message `json:"messages"`
	UserIntent      string    `json:"userIntent,omitempty"`
	DetectedNeeds   []string  `json:"detectedNeeds,omitempty"`
	LeadInfo        *LeadInfo `json:"leadInfo,omitempty"`
	BusinessContext string    `json:"businessContext,omitempty"`
	Revision        int64     `json:"revision"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// NewContext returns a fresh context for the session.
func NewContext(sessionID string) *Context {
	now := time.Now().UTC()
	return &Context{
		SessionID: sessionID,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UserMessageCount counts visitor turns in the transcript.
func (c *Context) UserMessageCount() int {
	n := 0
	for _, m := range c.Messages {
		if m.Role == RoleUser {
			n++
		}
	}
	return n
}

// HasLeadEmail reports whether contact capture already succeeded.
func (c *Context) HasLeadEmail() bool {
	return c.LeadInfo != nil && c.LeadInfo.Email != ""
}

// Response is what a processed message turn hands back to the HTTP layer.
type Response struct {
	Message           string   `json:"message"`
	Intent            string   `json:"intent,omitempty"`
	Confidence        float64  `json:"confidence,omitempty"`
	SuggestedActions  []string `json:"suggestedActions"`
	LeadCapturePrompt bool     `json:"leadCapturePrompt"`
	SessionID         string   `json:"sessionId"`
}
