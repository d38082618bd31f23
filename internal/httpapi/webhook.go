package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/boostxlresults/intellisend/internal/agent"
	"github.com/boostxlresults/intellisend/internal/session"
	"github.com/boostxlresults/intellisend/pkg/logging"
)

type inboundPublisher interface {
	PublishInbound(ctx context.Context, in agent.Inbound) error
}

// InboundMessagePayload is the webhook body posted by the SMS platform for
// each customer reply.
type InboundMessagePayload struct {
	OrgID       string                `json:"org_id"`
	ContactID   string                `json:"contact_id"`
	MessageID   string                `json:"message_id"`
	Phone       string                `json:"phone"`
	ContactName string                `json:"contact_name,omitempty"`
	Body        string                `json:"body"`
	Offer       *session.OfferContext `json:"offer,omitempty"`
}

// WebhookHandler receives inbound SMS webhooks and enqueues them for the
// booking agent. The webhook acknowledges fast; all conversation work happens
// in the worker.
type WebhookHandler struct {
	publisher inboundPublisher
	logger    *logging.Logger
}

// NewWebhookHandler creates the inbound webhook handler. It panics if
// publisher is nil.
func NewWebhookHandler(publisher inboundPublisher, logger *logging.Logger) *WebhookHandler {
	if publisher == nil {
		panic("httpapi: publisher cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{publisher: publisher, logger: logger}
}

// ConversationID builds the canonical conversation id for an org and phone.
func ConversationID(orgID, phone string) string {
	return fmt.Sprintf("sms:%s:%s", orgID, phone)
}

// HandleInboundSMS validates the webhook payload and publishes the message to
// the dispatch queue.
func (h *WebhookHandler) HandleInboundSMS(w http.ResponseWriter, r *http.Request) {
	var payload InboundMessagePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if payload.OrgID == "" || payload.Phone == "" {
		http.Error(w, "org_id and phone are required", http.StatusBadRequest)
		return
	}
	if payload.Body == "" {
		http.Error(w, "body is required", http.StatusBadRequest)
		return
	}

	conversationID := ConversationID(payload.OrgID, payload.Phone)
	in := agent.Inbound{
		ConversationID: conversationID,
		OrgID:          payload.OrgID,
		ContactID:      payload.ContactID,
		MessageID:      payload.MessageID,
		Phone:          payload.Phone,
		ContactName:    payload.ContactName,
		Body:           payload.Body,
		Offer:          payload.Offer,
	}

	if err := h.publisher.PublishInbound(r.Context(), in); err != nil {
		h.logger.Error("failed to enqueue inbound message",
			"error", err,
			"conversation_id", conversationID,
			"org_id", payload.OrgID,
		)
		http.Error(w, "enqueue failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":          "queued",
		"conversation_id": conversationID,
	})
}
