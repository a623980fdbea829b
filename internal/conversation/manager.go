package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/webcraft-studio/chatbot-platform/internal/knowledge"
	"github.com/webcraft-studio/chatbot-platform/internal/llm"
	"github.com/webcraft-studio/chatbot-platform/internal/observability/metrics"
	"github.com/webcraft-studio/chatbot-platform/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var managerTracer = otel.Tracer("webcraft.internal.conversation")

// leadPromptThreshold is the visitor turn count after which we ask for
// contact details even without a high-intent match.
const leadPromptThreshold = 4

// saveAttempts bounds revision conflict retries per turn.
const saveAttempts = 3

// IntentDetector scores the message against the knowledge base.
type IntentDetector interface {
	DetectIntent(ctx context.Context, message string) []knowledge.Match
}

// ContextStore is the durable session store.
type ContextStore interface {
	Load(ctx context.Context, sessionID string) (*Context, error)
	Save(ctx context.Context, c *Context) error
}

// ContextCache is the fast-path session cache. Nil disables caching.
type ContextCache interface {
	Load(ctx context.Context, sessionID string) (*Context, error)
	Save(ctx context.Context, c *Context) error
	Delete(ctx context.Context, sessionID string) error
}

// ManagerConfig carries the business persona the manager speaks as.
type ManagerConfig struct {
	BusinessName string
	SupportEmail string
}

// Manager orchestrates a chat turn: load context, detect intent, prompt the
// model, and persist the updated transcript. Every failure short of a bad
// request degrades to a usable reply rather than an error.
type Manager struct {
	detector IntentDetector
	client   llm.Client
	store    ContextStore
	cache    ContextCache
	cfg      ManagerConfig
	logger   *logging.Logger
	metrics  *metrics.ChatMetrics
}

// NewManager wires the conversation pipeline.
func NewManager(detector IntentDetector, client llm.Client, store ContextStore, cache ContextCache, cfg ManagerConfig, logger *logging.Logger, chatMetrics *metrics.ChatMetrics) *Manager {
	if detector == nil {
		panic("conversation: intent detector cannot be nil")
	}
	if client == nil {
		panic("conversation: llm client cannot be nil")
	}
	if store == nil {
		panic("conversation: context store cannot be nil")
	}
	if cfg.BusinessName == "" {
		cfg.BusinessName = "Webcraft Studio"
	}
	if cfg.SupportEmail == "" {
		cfg.SupportEmail = "hello@webcraft.studio"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{
		detector: detector,
		client:   client,
		store:    store,
		cache:    cache,
		cfg:      cfg,
		logger:   logger,
		metrics:  chatMetrics,
	}
}

// ProcessMessage runs one full turn. When onChunk is non-nil the reply streams
// through it with cumulative chunks; either way the final response is
// returned. Model failures produce the fixed apology instead of an error.
func (m *Manager) ProcessMessage(ctx context.Context, sessionID, message string, onChunk llm.ChunkHandler) (*Response, error) {
	ctx, span := managerTracer.Start(ctx, "conversation.process_message")
	defer span.End()
	span.SetAttributes(attribute.String("webcraft.session_id", sessionID))

	start := time.Now()
	mode := "blocking"
	if onChunk != nil {
		mode = "streaming"
	}

	c := m.loadContext(ctx, sessionID)

	matches := m.detector.DetectIntent(ctx, message)
	var (
		intent     string
		confidence float64
	)
	if len(matches) > 0 {
		intent = matches[0].Intent
		confidence = matches[0].Confidence
		c.UserIntent = intent
		c.DetectedNeeds = appendNeed(c.DetectedNeeds, intent)
		span.SetAttributes(
			attribute.String("webcraft.intent", intent),
			attribute.Float64("webcraft.confidence", confidence),
		)
	}

	userMsg := Message{
		ID:         uuid.NewString(),
		Role:       RoleUser,
		Content:    message,
		Timestamp:  time.Now().UTC(),
		Intent:     intent,
		Confidence: confidence,
	}
	c.Messages = append(c.Messages, userMsg)
	c.BusinessContext = buildBusinessContext(m.cfg.BusinessName, m.cfg.SupportEmail, matches)

	prompt := buildPrompt(c.BusinessContext, c.Messages)

	outcome := "ok"
	reply, err := m.generate(ctx, prompt, onChunk)
	if err != nil {
		span.RecordError(err)
		m.logger.Error("model reply failed, sending fallback", "error", err, "session_id", sessionID)
		reply = m.fallbackReply()
		outcome = "fallback"
		if onChunk != nil {
			onChunk(llm.StreamChunk{Content: reply, Finished: true})
		}
	}

	assistantMsg := Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   reply,
		Timestamp: time.Now().UTC(),
	}
	c.Messages = append(c.Messages, assistantMsg)

	leadPrompt := m.shouldPromptForLead(c)
	if leadPrompt {
		m.metrics.ObserveLeadPrompt()
	}

	m.persist(ctx, c, userMsg, assistantMsg)

	m.metrics.ObserveTurn(outcome)
	m.metrics.ObserveTurnLatency(mode, time.Since(start).Seconds())

	return &Response{
		Message:           reply,
		Intent:            intent,
		Confidence:        confidence,
		SuggestedActions:  actionsForIntent(intent),
		LeadCapturePrompt: leadPrompt,
		SessionID:         sessionID,
	}, nil
}

// AttachLead stores contact details on the session context.
func (m *Manager) AttachLead(ctx context.Context, sessionID string, lead LeadInfo) error {
	ctx, span := managerTracer.Start(ctx, "conversation.attach_lead")
	defer span.End()

	c := m.loadContext(ctx, sessionID)
	c.LeadInfo = &lead

	var err error
	for attempt := 0; attempt < saveAttempts; attempt++ {
		if err = m.store.Save(ctx, c); err == nil {
			m.cacheSave(ctx, c)
			return nil
		}
		if !errors.Is(err, ErrRevisionConflict) {
			break
		}
		m.metrics.ObserveSaveConflict()
		m.cacheInvalidate(ctx, sessionID)
		fresh, loadErr := m.store.Load(ctx, sessionID)
		if loadErr != nil {
			err = loadErr
			break
		}
		fresh.LeadInfo = &lead
		c = fresh
	}
	span.RecordError(err)
	return fmt.Errorf("conversation: attach lead failed: %w", err)
}

// History returns the stored transcript, empty for unknown sessions.
func (m *Manager) History(ctx context.Context, sessionID string) ([]Message, error) {
	if m.cache != nil {
		if c, err := m.cache.Load(ctx, sessionID); err == nil {
			return c.Messages, nil
		}
	}
	c, err := m.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrContextNotFound) {
			return []Message{}, nil
		}
		return nil, err
	}
	return c.Messages, nil
}

func (m *Manager) generate(ctx context.Context, prompt []llm.ChatMessage, onChunk llm.ChunkHandler) (string, error) {
	if onChunk != nil {
		return m.client.GenerateStreamingResponse(ctx, prompt, onChunk)
	}
	return m.client.GenerateResponse(ctx, prompt)
}

// loadContext prefers the cache, falls back to the durable store, and starts
// fresh when both miss or fail. A load failure never fails the turn.
func (m *Manager) loadContext(ctx context.Context, sessionID string) *Context {
	if m.cache != nil {
		c, err := m.cache.Load(ctx, sessionID)
		if err == nil {
			return c
		}
		if !errors.Is(err, ErrContextNotFound) {
			m.logger.Warn("context cache load failed", "error", err, "session_id", sessionID)
		}
	}
	c, err := m.store.Load(ctx, sessionID)
	if err == nil {
		return c
	}
	if !errors.Is(err, ErrContextNotFound) {
		m.logger.Warn("context load failed, starting fresh", "error", err, "session_id", sessionID)
	}
	return NewContext(sessionID)
}

// persist writes the turn durably, retrying revision conflicts by reloading
// and re-applying this turn's messages. Persistence failure is logged, never
// surfaced: the visitor already has their reply.
func (m *Manager) persist(ctx context.Context, c *Context, turn ...Message) {
	var err error
	for attempt := 0; attempt < saveAttempts; attempt++ {
		if err = m.store.Save(ctx, c); err == nil {
			m.cacheSave(ctx, c)
			return
		}
		if !errors.Is(err, ErrRevisionConflict) {
			break
		}
		m.metrics.ObserveSaveConflict()
		m.cacheInvalidate(ctx, c.SessionID)
		fresh, loadErr := m.store.Load(ctx, c.SessionID)
		if loadErr != nil {
			err = loadErr
			break
		}
		fresh.Messages = append(fresh.Messages, turn...)
		if c.UserIntent != "" {
			fresh.UserIntent = c.UserIntent
		}
		for _, need := range c.DetectedNeeds {
			fresh.DetectedNeeds = appendNeed(fresh.DetectedNeeds, need)
		}
		if fresh.LeadInfo == nil {
			fresh.LeadInfo = c.LeadInfo
		}
		fresh.BusinessContext = c.BusinessContext
		c = fresh
	}
	m.logger.Error("context save failed", "error", err, "session_id", c.SessionID)
}

func (m *Manager) cacheSave(ctx context.Context, c *Context) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Save(ctx, c); err != nil {
		m.logger.Warn("context cache save failed", "error", err, "session_id", c.SessionID)
	}
}

// cacheInvalidate drops the cached context after a revision conflict showed it
// to be stale, so the retry reloads from the durable store.
func (m *Manager) cacheInvalidate(ctx context.Context, sessionID string) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Delete(ctx, sessionID); err != nil {
		m.logger.Warn("context cache invalidation failed", "error", err, "session_id", sessionID)
	}
}

// shouldPromptForLead gates the contact-details nudge: never once we have an
// email, otherwise on a high-intent match or a long enough conversation.
func (m *Manager) shouldPromptForLead(c *Context) bool {
	if c.HasLeadEmail() {
		return false
	}
	for _, msg := range c.Messages {
		if msg.Intent != "" && isHighIntent(msg.Intent) {
			return true
		}
	}
	return c.UserMessageCount() >= leadPromptThreshold
}

func (m *Manager) fallbackReply() string {
	return fmt.Sprintf(
		"I'm sorry, I'm having trouble responding right now. Please reach us at %s and we'll get back to you shortly.",
		m.cfg.SupportEmail,
	)
}

func appendNeed(needs []string, need string) []string {
	for _, n := range needs {
		if n == need {
			return needs
		}
	}
	return append(needs, need)
}
