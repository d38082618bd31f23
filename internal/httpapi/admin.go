package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/boostxlresults/intellisend/internal/session"
	"github.com/boostxlresults/intellisend/internal/transcript"
	"github.com/boostxlresults/intellisend/pkg/logging"
)

// AdminHandler exposes session inspection and reset for operators. Reset is
// the only way a terminal outcome can be cleared.
type AdminHandler struct {
	sessions    session.Store
	transcripts *transcript.Store
	logger      *logging.Logger
}

// NewAdminHandler creates the admin session handler. It panics if sessions
// is nil; transcripts may be nil.
func NewAdminHandler(sessions session.Store, transcripts *transcript.Store, logger *logging.Logger) *AdminHandler {
	if sessions == nil {
		panic("httpapi: session store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminHandler{sessions: sessions, transcripts: transcripts, logger: logger}
}

type sessionResponse struct {
	ConversationID string           `json:"conversation_id"`
	OrgID          string           `json:"org_id"`
	ContactID      string           `json:"contact_id"`
	State          session.State    `json:"state"`
	Outcome        session.Outcome  `json:"outcome"`
	MessageCount   int              `json:"message_count"`
	Name           string           `json:"name,omitempty"`
	Address        string           `json:"address,omitempty"`
	Email          string           `json:"email,omitempty"`
	PreferredTime  string           `json:"preferred_time,omitempty"`
	CustomerID     string           `json:"customer_id,omitempty"`
	LocationID     string           `json:"location_id,omitempty"`
	JobID          string           `json:"job_id,omitempty"`
	AppointmentID  string           `json:"appointment_id,omitempty"`
	HandoffID      string           `json:"handoff_id,omitempty"`
	LastIntent     string           `json:"last_intent,omitempty"`
	OfferedSlots   int              `json:"offered_slots"`
	Messages       []messageSummary `json:"messages,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

type messageSummary struct {
	Role      string    `json:"role"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// GetSession returns the current automation state for a conversation,
// including recent transcript messages when a transcript store is wired.
func (h *AdminHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	if conversationID == "" {
		http.Error(w, "conversationID is required", http.StatusBadRequest)
		return
	}

	sess, err := h.sessions.Get(r.Context(), conversationID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load session", "error", err, "conversation_id", conversationID)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	resp := sessionResponse{
		ConversationID: sess.ConversationID,
		OrgID:          sess.OrgID,
		ContactID:      sess.ContactID,
		State:          sess.State,
		Outcome:        sess.Outcome,
		MessageCount:   sess.MessageCount,
		Name:           sess.Name,
		Address:        sess.Address,
		Email:          sess.Email,
		PreferredTime:  sess.PreferredTime,
		CustomerID:     sess.CustomerID,
		LocationID:     sess.LocationID,
		JobID:          sess.JobID,
		AppointmentID:  sess.AppointmentID,
		HandoffID:      sess.HandoffID,
		LastIntent:     sess.LastIntent,
		OfferedSlots:   len(sess.OfferedSlots),
		CreatedAt:      sess.CreatedAt,
		UpdatedAt:      sess.UpdatedAt,
	}

	if h.transcripts != nil {
		msgs, err := h.transcripts.GetMessages(r.Context(), conversationID, 20)
		if err != nil {
			h.logger.Warn("failed to load transcript", "error", err, "conversation_id", conversationID)
		}
		for _, m := range msgs {
			resp.Messages = append(resp.Messages, messageSummary{
				Role:      m.Role,
				Body:      m.Body,
				CreatedAt: m.CreatedAt,
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// ResetSession returns a conversation to its initial automation state.
// Transcript history is untouched.
func (h *AdminHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	if conversationID == "" {
		http.Error(w, "conversationID is required", http.StatusBadRequest)
		return
	}

	if err := h.sessions.Reset(r.Context(), conversationID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to reset session", "error", err, "conversation_id", conversationID)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("session reset by admin", "conversation_id", conversationID)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":          "reset",
		"conversation_id": conversationID,
	})
}
