package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webcraft-studio/chatbot-platform/internal/conversation"
)

type fakeLinker struct {
	sessionID string
	lead      conversation.LeadInfo
	err       error
	calls     int
}

func (f *fakeLinker) AttachLead(_ context.Context, sessionID string, lead conversation.LeadInfo) error {
	f.calls++
	f.sessionID = sessionID
	f.lead = lead
	return f.err
}

type fakeNotifier struct {
	calls int
	err   error
}

func (f *fakeNotifier) NotifyLead(context.Context, *Lead) error {
	f.calls++
	return f.err
}

func postLead(t *testing.T, h *Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/leads", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	return rec
}

func TestCreateLead(t *testing.T) {
	linker := &fakeLinker{}
	notifier := &fakeNotifier{}
	h := NewHandler(NewInMemoryRepository(), linker, notifier, nil)

	rec := postLead(t, h, CreateLeadRequest{
		SessionID: "sess-1",
		Name:      "Sam",
		Email:     "sam@example.com",
		Message:   "I need a site for my bakery",
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var lead Lead
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&lead))
	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, "Sam", lead.Name)
	assert.Equal(t, "chat_widget", lead.Source)

	assert.Equal(t, 1, linker.calls)
	assert.Equal(t, "sess-1", linker.sessionID)
	assert.Equal(t, "sam@example.com", linker.lead.Email)
	assert.Equal(t, 1, notifier.calls)
}

func TestCreateLeadValidation(t *testing.T) {
	h := NewHandler(NewInMemoryRepository(), nil, nil, nil)

	rec := postLead(t, h, CreateLeadRequest{Email: "sam@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postLead(t, h, CreateLeadRequest{Name: "Sam"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateLeadBadJSON(t *testing.T) {
	h := NewHandler(NewInMemoryRepository(), nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/leads", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateLeadSurvivesLinkerFailure(t *testing.T) {
	linker := &fakeLinker{err: errors.New("db down")}
	h := NewHandler(NewInMemoryRepository(), linker, nil, nil)

	rec := postLead(t, h, CreateLeadRequest{SessionID: "sess-1", Name: "Sam", Email: "sam@example.com"})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateLeadWithoutSessionSkipsLinker(t *testing.T) {
	linker := &fakeLinker{}
	h := NewHandler(NewInMemoryRepository(), linker, nil, nil)

	rec := postLead(t, h, CreateLeadRequest{Name: "Sam", Email: "sam@example.com", Source: "contact_form"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Zero(t, linker.calls)
}

func TestListLeads(t *testing.T) {
	repo := NewInMemoryRepository()
	h := NewHandler(repo, nil, nil, nil)

	for _, name := range []string{"Ann", "Bob", "Cat"} {
		_, err := repo.Create(context.Background(), &CreateLeadRequest{Name: name, Email: name + "@example.com"})
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/leads?limit=2", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ListLeadsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "Cat", resp.Leads[0].Name)
}
