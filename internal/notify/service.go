package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/webcraft-studio/chatbot-platform/internal/leads"
	"github.com/webcraft-studio/chatbot-platform/pkg/logging"
)

// Service sends the team an email whenever the chatbot captures a lead.
type Service struct {
	email        EmailSender
	recipient    string
	businessName string
	logger       *logging.Logger
}

// NewService creates a notification service. A nil sender or empty recipient
// disables notifications.
func NewService(email EmailSender, recipient, businessName string, logger *logging.Logger) *Service {
	if businessName == "" {
		businessName = "Webcraft Studio"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:        email,
		recipient:    recipient,
		businessName: businessName,
		logger:       logger,
	}
}

// NotifyLead sends the new-lead email.
func (s *Service) NotifyLead(ctx context.Context, lead *leads.Lead) error {
	if s.email == nil || s.recipient == "" {
		s.logger.Debug("notify: email not configured, skipping lead notification")
		return nil
	}

	subject := fmt.Sprintf("New website lead - %s", lead.Name)
	body := fmt.Sprintf(`A new lead came in through the website chat!

Name: %s
Email: %s
Phone: %s
Source: %s
Message: %s%s

— %s assistant`, lead.Name, lead.Email, lead.Phone, lead.Source, lead.Message, s.formatSession(lead.SessionID), s.businessName)

	html := fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2>New website lead</h2>
<table style="border-collapse: collapse; margin: 20px 0;">
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Name:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Email:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><a href="mailto:%s">%s</a></td></tr>
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Phone:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Source:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Message:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>
</table>
<p style="color: #6b7280; font-size: 12px; margin-top: 20px;">— %s assistant</p>
</div>`,
		lead.Name, lead.Email, lead.Email, lead.Phone, lead.Source, lead.Message, s.businessName)

	msg := EmailMessage{
		To:      s.recipient,
		Subject: subject,
		Body:    body,
		HTML:    html,
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("notify: failed to send lead email", "error", err, "to", s.recipient)
		return fmt.Errorf("notify: lead email failed: %w", err)
	}

	s.logger.Info("notify: lead email sent", "to", s.recipient, "lead_id", lead.ID)
	return nil
}

func (s *Service) formatSession(sessionID string) string {
	if strings.TrimSpace(sessionID) == "" {
		return ""
	}
	return fmt.Sprintf("\nChat session: %s", sessionID)
}

var _ leads.Notifier = (*Service)(nil)
