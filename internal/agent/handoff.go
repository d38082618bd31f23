package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/boostxlresults/intellisend/internal/session"
	"github.com/boostxlresults/intellisend/pkg/logging"
)

// Handoff reasons recorded on the event and metric labels.
const (
	HandoffReasonLoopGuard      = "loop_guard"
	HandoffReasonCRMFailure     = "crm_failure"
	HandoffReasonNoAvailability = "no_availability"
	HandoffReasonCallRequested  = "call_requested"
	HandoffReasonReschedule     = "reschedule"
	HandoffReasonInternalError  = "internal_error"
	HandoffReasonBackingMissing = "backing_data_missing"
	HandoffReasonPostTerminal   = "post_terminal"
)

const maxSummaryLength = 900

// HandoffRecord is the human-visible booking record created when automation
// stops.
type HandoffRecord struct {
	TenantID           string
	ConversationID     string
	ContactID          string
	ContactName        string
	Phone              string
	Reason             string
	LastInboundMessage string
	Summary            string
}

// HandoffSink creates the external human-visible record (CRM booking, ticket,
// CSR notification). It returns the record's id.
type HandoffSink interface {
	CreateHandoffRecord(ctx context.Context, rec HandoffRecord) (string, error)
}

// HandoffService escalates a conversation to a human. Idempotent with respect
// to the session: once a handoff record exists its id is reused and no second
// external record is created.
type HandoffService struct {
	sink   HandoffSink
	logger *logging.Logger
}

// NewHandoffService builds a handoff service. A nil sink is allowed; the
// customer-facing reply is still produced, only the external record is skipped.
func NewHandoffService(sink HandoffSink, logger *logging.Logger) *HandoffService {
	if logger == nil {
		logger = logging.Default()
	}
	return &HandoffService{sink: sink, logger: logger}
}

// Handoff creates the external record for the session if one does not exist
// yet and returns its id. Sink failures are logged, never returned: the
// conversation must receive its "a team member will follow up" reply even
// when the ticket system is down.
func (h *HandoffService) Handoff(ctx context.Context, sess *session.Session, contactName, phone, lastInbound, reason string) string {
	if sess.HandoffID != "" {
		return sess.HandoffID
	}
	if h.sink == nil {
		h.logger.Warn("handoff requested but no sink configured",
			"conversation_id", sess.ConversationID,
			"org_id", sess.OrgID,
			"reason", reason,
		)
		return ""
	}

	rec := HandoffRecord{
		TenantID:           sess.OrgID,
		ConversationID:     sess.ConversationID,
		ContactID:          sess.ContactID,
		ContactName:        contactName,
		Phone:              phone,
		Reason:             reason,
		LastInboundMessage: lastInbound,
		Summary:            BuildHandoffSummary(sess, contactName, phone, lastInbound, reason),
	}

	id, err := h.sink.CreateHandoffRecord(ctx, rec)
	if err != nil {
		h.logger.Error("failed to create handoff record",
			"error", err,
			"conversation_id", sess.ConversationID,
			"org_id", sess.OrgID,
			"reason", reason,
		)
		return ""
	}

	h.logger.Info("handoff record created",
		"conversation_id", sess.ConversationID,
		"org_id", sess.OrgID,
		"handoff_id", id,
		"reason", reason,
	)
	sess.HandoffID = id
	return id
}

// BuildHandoffSummary renders the bounded conversation summary a CSR reads
// before calling the customer back.
func BuildHandoffSummary(sess *session.Session, contactName, phone, lastInbound, reason string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Customer: %s\n", valueOrNA(firstNonEmpty(sess.Name, contactName))))
	b.WriteString(fmt.Sprintf("Phone: %s\n", valueOrNA(phone)))
	if sess.Address != "" {
		b.WriteString(fmt.Sprintf("Address: %s\n", sess.Address))
	}
	if sess.Email != "" {
		b.WriteString(fmt.Sprintf("Email: %s\n", sess.Email))
	}
	if sess.Offer != nil {
		b.WriteString(fmt.Sprintf("Offer: %s (%s)\n", sess.Offer.Name, sess.Offer.Price))
	}
	if sess.PreferredTime != "" {
		b.WriteString(fmt.Sprintf("Preferred time: %s\n", sess.PreferredTime))
	}
	if sess.CustomerID != "" {
		b.WriteString(fmt.Sprintf("CRM customer: %s\n", sess.CustomerID))
	}
	b.WriteString(fmt.Sprintf("Conversation state: %s after %d messages\n", sess.State, sess.MessageCount))
	b.WriteString(fmt.Sprintf("Escalation reason: %s\n", reason))
	if lastInbound != "" {
		b.WriteString(fmt.Sprintf("Last message: %q\n", lastInbound))
	}

	summary := b.String()
	if len(summary) > maxSummaryLength {
		summary = summary[:maxSummaryLength]
	}
	return summary
}

func valueOrNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
