package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/webcraft-studio/chatbot-platform/internal/leads"
)

type captureSender struct {
	sent []EmailMessage
	err  error
}

func (c *captureSender) Send(_ context.Context, msg EmailMessage) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

func sampleLead() *leads.Lead {
	return &leads.Lead{
		ID:        "lead-1",
		SessionID: "sess-1",
		Name:      "Sam",
		Email:     "sam@example.com",
		Phone:     "555-0100",
		Message:   "Need a site for my bakery",
		Source:    "chat_widget",
	}
}

func TestNotifyLead(t *testing.T) {
	sender := &captureSender{}
	svc := NewService(sender, "team@webcraft.studio", "Webcraft Studio", nil)

	if err := svc.NotifyLead(context.Background(), sampleLead()); err != nil {
		t.Fatalf("NotifyLead: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.To != "team@webcraft.studio" {
		t.Errorf("unexpected recipient %s", msg.To)
	}
	if !strings.Contains(msg.Subject, "Sam") {
		t.Errorf("expected lead name in subject, got %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "sess-1") {
		t.Errorf("expected session id in body")
	}
	if !strings.Contains(msg.HTML, "sam@example.com") {
		t.Errorf("expected email address in HTML body")
	}
}

func TestNotifyLeadUnconfigured(t *testing.T) {
	svc := NewService(nil, "", "", nil)
	if err := svc.NotifyLead(context.Background(), sampleLead()); err != nil {
		t.Fatalf("unconfigured service must be a no-op, got %v", err)
	}
}

func TestNotifyLeadSendFailure(t *testing.T) {
	sender := &captureSender{err: errors.New("smtp down")}
	svc := NewService(sender, "team@webcraft.studio", "", nil)
	if err := svc.NotifyLead(context.Background(), sampleLead()); err == nil {
		t.Fatal("expected error when send fails")
	}
}
