// Package session owns the persistent per-conversation automation record:
// the state enum, the outcome, the loop-guard counter, and the extracted
// field cache the booking agent accumulates across inbound messages.
package session

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/boostxlresults/intellisend/internal/crm"
)

// State is the single source of truth for what happens on the next inbound message.
type State string

const (
	StateInboundReceived         State = "inbound_received"
	StateQualifying              State = "qualifying"
	StateCollectingAddress       State = "collecting_address"
	StateAwaitingName            State = "awaiting_name"
	StateMatchingRecords         State = "matching_records"
	StateAwaitingIdentityConfirm State = "awaiting_identity_confirm"
	StateAwaitingAddressConfirm  State = "awaiting_address_confirm"
	StateCreatingCustomer        State = "creating_customer"
	StateProposingTimes          State = "proposing_times"
	StateBookingJob              State = "booking_job"
	StateConfirmed               State = "confirmed"
	StateHandoff                 State = "handoff_to_csr"
	StateCompleted               State = "completed"
	StateError                   State = "error"
)

// Terminal reports whether no further automated transitions happen from this state.
func (s State) Terminal() bool {
	switch s {
	case StateConfirmed, StateHandoff, StateCompleted, StateError:
		return true
	}
	return false
}

// MidFlow reports whether the state expects a specific answer shape from the
// customer. In these states the raw message is interpreted directly first and
// intent classification is only a fallback.
func (s State) MidFlow() bool {
	switch s {
	case StateProposingTimes, StateAwaitingName, StateCollectingAddress,
		StateAwaitingIdentityConfirm, StateAwaitingAddressConfirm:
		return true
	}
	return false
}

// Outcome records how the conversation ended. Set once, immutable except by
// explicit human reset.
type Outcome string

const (
	OutcomePending       Outcome = "pending"
	OutcomeFullBooking   Outcome = "full_booking"
	OutcomeCSRBooking    Outcome = "csr_booking"
	OutcomeNeedsHuman    Outcome = "needs_human"
	OutcomeNotInterested Outcome = "not_interested"
	OutcomeOptOut        Outcome = "opt_out"
)

// OfferContext is immutable campaign-offer metadata attached at session
// creation, used to tailor response-generation instructions.
type OfferContext struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Price string `json:"price,omitempty"`
}

// Session is the persistent per-conversation automation state.
type Session struct {
	ID             uuid.UUID
	ConversationID string
	OrgID          string
	ContactID      string

	State   State
	Outcome Outcome

	// MessageCount is incremented exactly once per inbound message processed,
	// even across retries of the same logical message (deduped by LastInboundID).
	MessageCount  int
	LastInboundID string

	// Extracted/confirmed fields, last write wins; never overwritten with empty.
	Name          string
	Address       string
	Email         string
	PreferredTime string

	// CRM linkage, populated progressively.
	CustomerID    string
	LocationID    string
	JobID         string
	AppointmentID string
	HandoffID     string

	// Ephemeral negotiation fields.
	PendingMatchCustomerID string
	PendingMatchLocationID string
	PendingMatchName       string
	OfferedSlots           []crm.Slot
	SelectedSlotIndex      int

	LastIntent string
	Offer      *OfferContext

	CreatedAt time.Time
	UpdatedAt time.Time
}

// LoopGuardTripped reports whether the message cap has been reached.
func (s *Session) LoopGuardTripped(cap int) bool {
	return cap > 0 && s.MessageCount >= cap
}

// OutcomeSet reports whether a terminal or handoff outcome was recorded.
func (s *Session) OutcomeSet() bool {
	return s.Outcome != "" && s.Outcome != OutcomePending
}

// SetOutcome records the outcome once; later calls are ignored. Opt-out is
// the single exception: a STOP must silence the conversation even after a
// booking already recorded full_booking.
func (s *Session) SetOutcome(o Outcome) {
	if s.OutcomeSet() && o != OutcomeOptOut {
		return
	}
	s.Outcome = o
}

// ClearPendingMatch drops the candidate identity awaiting confirmation.
func (s *Session) ClearPendingMatch() {
	s.PendingMatchCustomerID = ""
	s.PendingMatchLocationID = ""
	s.PendingMatchName = ""
}

// ClearOfferedSlots drops the slot list offered to the customer.
func (s *Session) ClearOfferedSlots() {
	s.OfferedSlots = nil
	s.SelectedSlotIndex = 0
}

// MergeExtracted folds newly extracted fields into the session. Extraction
// never overwrites a field with an empty value.
func (s *Session) MergeExtracted(name, address, email, preferredTime string) {
	if v := strings.TrimSpace(name); v != "" {
		s.Name = v
	}
	if v := strings.TrimSpace(address); v != "" {
		s.Address = v
	}
	if v := strings.TrimSpace(email); v != "" {
		s.Email = v
	}
	if v := strings.TrimSpace(preferredTime); v != "" {
		s.PreferredTime = v
	}
}
