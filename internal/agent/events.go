package agent

import (
	"context"
	"encoding/json"
	"time"

	"github.com/boostxlresults/intellisend/pkg/logging"
)

// BookingEvent is a structured event in the booking conversation lifecycle.
// All events share the same base fields for easy filtering/grep.
type BookingEvent struct {
	Time           string         `json:"time"`
	Event          string         `json:"event"`
	ConversationID string         `json:"conversation_id"`
	OrgID          string         `json:"org_id"`
	Data           map[string]any `json:"data,omitempty"`
}

// EventLogger emits one structured JSON event per state-machine decision.
// Designed for fast grep/filter debugging:
//
//	grep '"event":"state_transition"' /var/log/app.log
//	grep '"conversation_id":"sms:org-1:+15550001111"' /var/log/app.log
type EventLogger struct {
	logger *logging.Logger
}

// NewEventLogger creates a booking event logger.
func NewEventLogger(logger *logging.Logger) *EventLogger {
	return &EventLogger{logger: logger}
}

// Log emits a structured booking event.
func (e *EventLogger) Log(_ context.Context, event, convID, orgID string, data map[string]any) {
	if e == nil || e.logger == nil {
		return
	}
	evt := BookingEvent{
		Time:           time.Now().UTC().Format(time.RFC3339Nano),
		Event:          event,
		ConversationID: convID,
		OrgID:          orgID,
		Data:           data,
	}
	b, _ := json.Marshal(evt)
	e.logger.Info(string(b))
}

func (e *EventLogger) MessageReceived(ctx context.Context, convID, orgID, message string) {
	msg := message
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	e.Log(ctx, "message_received", convID, orgID, map[string]any{"message": msg})
}

func (e *EventLogger) IntentClassified(ctx context.Context, convID, orgID, intent string, confidence float64, method string) {
	e.Log(ctx, "intent_classified", convID, orgID, map[string]any{
		"intent":     intent,
		"confidence": confidence,
		"method":     method, // "llm" or "heuristic" or "raw_shape"
	})
}

// StateTransition is the one event emitted for every state change; tests and
// dashboards reconstruct the transition sequence from it.
func (e *EventLogger) StateTransition(ctx context.Context, convID, orgID, from, to string) {
	e.Log(ctx, "state_transition", convID, orgID, map[string]any{
		"from": from,
		"to":   to,
	})
}

func (e *EventLogger) IdentityResolved(ctx context.Context, convID, orgID, matchedBy string, matchCount int, autoAccepted bool) {
	e.Log(ctx, "identity_resolved", convID, orgID, map[string]any{
		"matched_by":    matchedBy,
		"match_count":   matchCount,
		"auto_accepted": autoAccepted,
	})
}

func (e *EventLogger) SlotsOffered(ctx context.Context, convID, orgID string, slotCount int) {
	e.Log(ctx, "slots_offered", convID, orgID, map[string]any{"slot_count": slotCount})
}

func (e *EventLogger) SlotSelected(ctx context.Context, convID, orgID string, slotIndex int, slot string) {
	e.Log(ctx, "slot_selected", convID, orgID, map[string]any{
		"slot_index": slotIndex,
		"slot":       slot,
	})
}

func (e *EventLogger) JobBooked(ctx context.Context, convID, orgID, jobID, appointmentID string) {
	e.Log(ctx, "job_booked", convID, orgID, map[string]any{
		"job_id":         jobID,
		"appointment_id": appointmentID,
	})
}

func (e *EventLogger) HandoffCreated(ctx context.Context, convID, orgID, reason, handoffID string) {
	e.Log(ctx, "handoff_created", convID, orgID, map[string]any{
		"reason":     reason,
		"handoff_id": handoffID,
	})
}

func (e *EventLogger) OptOut(ctx context.Context, convID, orgID string) {
	e.Log(ctx, "opt_out", convID, orgID, nil)
}

func (e *EventLogger) ErrorOccurred(ctx context.Context, convID, orgID, step string, err error) {
	e.Log(ctx, "error", convID, orgID, map[string]any{
		"step":  step,
		"error": err.Error(),
	})
}
