package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/boostxlresults/intellisend/internal/agent"
	"github.com/boostxlresults/intellisend/pkg/logging"
)

// SMSSender sends SMS messages to CSRs.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Settings holds per-org notification preferences.
type Settings struct {
	BrandName       string
	EmailEnabled    bool
	EmailRecipients []string
	SMSEnabled      bool
	SMSRecipients   []string
}

// SettingsStore retrieves notification settings for an org.
type SettingsStore interface {
	Get(ctx context.Context, orgID string) (*Settings, error)
}

// StaticSettings serves the same settings for every org, used when
// notification routing comes from environment configuration rather than a
// per-tenant table.
type StaticSettings struct {
	settings Settings
}

// NewStaticSettings wraps fixed settings as a SettingsStore.
func NewStaticSettings(settings Settings) *StaticSettings {
	return &StaticSettings{settings: settings}
}

// Get returns the fixed settings regardless of org.
func (s *StaticSettings) Get(_ context.Context, _ string) (*Settings, error) {
	cp := s.settings
	return &cp, nil
}

// Service notifies CSRs when the booking agent hands a conversation off.
// It implements agent.HandoffSink: the generated record id is what the agent
// stores on the session to keep escalation idempotent.
type Service struct {
	email    EmailSender
	sms      SMSSender
	settings SettingsStore
	logger   *logging.Logger
}

// NewService creates a CSR notification service.
func NewService(email EmailSender, sms SMSSender, settings SettingsStore, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:    email,
		sms:      sms,
		settings: settings,
		logger:   logger,
	}
}

// CreateHandoffRecord notifies the org's CSRs about an escalated conversation
// and returns the record id. The id is returned as long as at least one
// configured channel delivered; an error means nothing reached a human and
// the agent should try again on the next inbound message.
func (s *Service) CreateHandoffRecord(ctx context.Context, rec agent.HandoffRecord) (string, error) {
	recordID := uuid.NewString()

	if s.settings == nil {
		s.logger.Warn("notify: no settings store configured, handoff recorded without notification",
			"handoff_id", recordID,
			"conversation_id", rec.ConversationID,
		)
		return recordID, nil
	}

	cfg, err := s.settings.Get(ctx, rec.TenantID)
	if err != nil {
		return "", fmt.Errorf("notify: get settings: %w", err)
	}

	contactName := rec.ContactName
	if contactName == "" {
		contactName = rec.Phone
	}
	if contactName == "" {
		contactName = "Unknown contact"
	}
	reason := reasonLabel(rec.Reason)

	var attempted, delivered int

	if cfg.EmailEnabled && s.email != nil && len(cfg.EmailRecipients) > 0 {
		subject := fmt.Sprintf("Booking needs attention: %s (%s)", contactName, reason)
		body := fmt.Sprintf(`A conversation needs a human follow-up.

Reason: %s
Handoff ID: %s

%s

— %s`, reason, recordID, rec.Summary, brandOr(cfg.BrandName))

		html := handoffHTML(contactName, reason, recordID, rec, cfg.BrandName)

		for _, recipient := range cfg.EmailRecipients {
			attempted++
			msg := EmailMessage{
				To:      recipient,
				Subject: subject,
				Body:    body,
				HTML:    html,
			}
			if err := s.email.Send(ctx, msg); err != nil {
				s.logger.Error("notify: failed to send handoff email", "error", err, "to", recipient, "handoff_id", recordID)
			} else {
				delivered++
				s.logger.Info("notify: handoff email sent", "to", recipient, "handoff_id", recordID, "reason", rec.Reason)
			}
		}
	}

	if cfg.SMSEnabled && s.sms != nil && len(cfg.SMSRecipients) > 0 {
		smsBody := fmt.Sprintf("Booking handoff: %s needs a call back (%s). Phone: %s. Last msg: %s",
			contactName, reason, valueOr(rec.Phone, "unknown"), truncate(rec.LastInboundMessage, 80))

		for _, recipient := range cfg.SMSRecipients {
			attempted++
			if err := s.sms.SendSMS(ctx, recipient, smsBody); err != nil {
				s.logger.Error("notify: failed to send handoff SMS", "error", err, "to", recipient, "handoff_id", recordID)
			} else {
				delivered++
				s.logger.Info("notify: handoff SMS sent", "to", recipient, "handoff_id", recordID, "reason", rec.Reason)
			}
		}
	}

	if attempted > 0 && delivered == 0 {
		return "", fmt.Errorf("notify: all %d handoff notification(s) failed", attempted)
	}
	if attempted == 0 {
		s.logger.Debug("notify: no notification channels configured for org", "org_id", rec.TenantID, "handoff_id", recordID)
	}
	return recordID, nil
}

func handoffHTML(contactName, reason, recordID string, rec agent.HandoffRecord, brand string) string {
	summaryHTML := strings.ReplaceAll(rec.Summary, "\n", "<br>")
	return fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2 style="color: #f59e0b;">Booking needs attention</h2>
<p><strong>%s</strong> needs a human follow-up (%s).</p>
<table style="border-collapse: collapse; margin: 20px 0;">
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Phone:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><a href="tel:%s">%s</a></td></tr>
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Reason:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Handoff ID:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>
</table>
<p style="background: #fffbeb; padding: 12px; border-radius: 8px; border-left: 4px solid #f59e0b;">%s</p>
<p style="color: #6b7280; font-size: 12px; margin-top: 20px;">— %s</p>
</div>`, contactName, reason, rec.Phone, rec.Phone, reason, recordID, summaryHTML, brandOr(brand))
}

func reasonLabel(reason string) string {
	switch reason {
	case agent.HandoffReasonLoopGuard:
		return "conversation going in circles"
	case agent.HandoffReasonCRMFailure:
		return "scheduling system error"
	case agent.HandoffReasonNoAvailability:
		return "no open appointment slots"
	case agent.HandoffReasonCallRequested:
		return "customer asked for a call"
	case agent.HandoffReasonReschedule:
		return "reschedule request"
	case agent.HandoffReasonBackingMissing:
		return "missing account data"
	case agent.HandoffReasonPostTerminal:
		return "reply after conversation closed"
	case agent.HandoffReasonInternalError:
		return "internal error"
	default:
		return reason
	}
}

func brandOr(brand string) string {
	if brand == "" {
		return "IntelliSend"
	}
	return brand
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// SimpleSMSSender provides a simple SMS sending implementation.
type SimpleSMSSender struct {
	sendFunc func(ctx context.Context, to, from, body string) error
	from     string
	logger   *logging.Logger
}

// NewSimpleSMSSender creates an SMS sender with a custom send function.
func NewSimpleSMSSender(from string, sendFunc func(ctx context.Context, to, from, body string) error, logger *logging.Logger) *SimpleSMSSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &SimpleSMSSender{
		sendFunc: sendFunc,
		from:     from,
		logger:   logger,
	}
}

// SendSMS sends an SMS message.
func (s *SimpleSMSSender) SendSMS(ctx context.Context, to, body string) error {
	if s.sendFunc == nil {
		s.logger.Warn("notify: SMS sender not configured")
		return nil
	}
	return s.sendFunc(ctx, to, s.from, body)
}

// StubSMSSender is a no-op sender for testing.
type StubSMSSender struct {
	logger *logging.Logger
}

// NewStubSMSSender creates a stub SMS sender.
func NewStubSMSSender(logger *logging.Logger) *StubSMSSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubSMSSender{logger: logger}
}

// SendSMS logs but doesn't send.
func (s *StubSMSSender) SendSMS(ctx context.Context, to, body string) error {
	s.logger.Info("stub SMS sender: would send", "to", to, "body_preview", truncate(body, 50))
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

var _ agent.HandoffSink = (*Service)(nil)
var _ SMSSender = (*SimpleSMSSender)(nil)
var _ SMSSender = (*StubSMSSender)(nil)
