package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webcraft-studio/chatbot-platform/internal/chat"
	"github.com/webcraft-studio/chatbot-platform/internal/conversation"
	"github.com/webcraft-studio/chatbot-platform/internal/knowledge"
	"github.com/webcraft-studio/chatbot-platform/internal/leads"
	"github.com/webcraft-studio/chatbot-platform/internal/llm"
)

type stubConversations struct{}

func (stubConversations) ProcessMessage(_ context.Context, sessionID, _ string, onChunk llm.ChunkHandler) (*conversation.Response, error) {
	if onChunk != nil {
		onChunk(llm.StreamChunk{Content: "Hi!", Finished: true})
	}
	return &conversation.Response{Message: "Hi!", SessionID: sessionID}, nil
}

func (stubConversations) History(context.Context, string) ([]conversation.Message, error) {
	return []conversation.Message{}, nil
}

const testSecret = "router-test-secret"

func newTestRouter(t *testing.T, rateLimit int) http.Handler {
	t.Helper()
	return New(&Config{
		ChatHandler:      chat.NewHandler(stubConversations{}, true, nil),
		LeadsHandler:     leads.NewHandler(leads.NewInMemoryRepository(), nil, nil, nil),
		KnowledgeHandler: knowledge.NewHandler(knowledge.NewInMemoryRepository(), nil),
		AdminAuthSecret:  testSecret,
		ChatRateLimit:    rateLimit,
		ChatRateWindow:   time.Minute,
		ChatRateMaxIPs:   100,
	})
}

func adminToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(t, 100)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestChatRoute(t *testing.T) {
	r := newTestRouter(t, 100)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte(`{"message": "hi"}`)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hi!")
}

func TestChatRateLimited(t *testing.T) {
	r := newTestRouter(t, 1)

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte(`{"message": "hi"}`)))
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, post())
	assert.Equal(t, http.StatusTooManyRequests, post())
}

func TestAdminKnowledgeRequiresAuth(t *testing.T) {
	r := newTestRouter(t, 100)

	req := httptest.NewRequest(http.MethodGet, "/admin/knowledge/", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/knowledge/", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateLeadRoute(t *testing.T) {
	r := newTestRouter(t, 100)
	payload := `{"name": "Sam", "email": "sam@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/leads", bytes.NewReader([]byte(payload)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}
