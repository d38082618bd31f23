// Package agent implements the conversational booking state machine. On each
// inbound SMS it loads the session, classifies the customer's reply, advances
// the state, calls the CRM when the flow needs customer or schedule data, and
// returns a directive telling the transport what to send back.
//
// The agent is invoked synchronously, once per inbound message. Messages for
// the same conversation must be processed in arrival order and never
// concurrently; the dispatch layer serializes per-conversation delivery.
package agent

import (
	"github.com/boostxlresults/intellisend/internal/session"
)

// Inbound is one customer message handed to the agent by the transport.
type Inbound struct {
	ConversationID string
	OrgID          string
	ContactID      string

	// MessageID is the provider's message id, used to count each logical
	// message exactly once across queue redeliveries.
	MessageID string

	Phone       string
	ContactName string
	Body        string

	// Offer is attached to the session on first contact and immutable after.
	Offer *session.OfferContext
}

// ExternalIDs carries the CRM references populated so far.
type ExternalIDs struct {
	CustomerID    string `json:"customerId,omitempty"`
	LocationID    string `json:"locationId,omitempty"`
	JobID         string `json:"jobId,omitempty"`
	AppointmentID string `json:"appointmentId,omitempty"`
	HandoffID     string `json:"handoffId,omitempty"`
}

// Directive is the agent's answer for one inbound message. A nil *Directive
// from HandleInboundMessage means automation is disabled for this
// organization and the caller should take no action at all.
type Directive struct {
	ShouldRespond bool
	Text          string
	State         session.State
	Outcome       session.Outcome
	ExternalIDs   ExternalIDs
}

func externalIDs(s *session.Session) ExternalIDs {
	return ExternalIDs{
		CustomerID:    s.CustomerID,
		LocationID:    s.LocationID,
		JobID:         s.JobID,
		AppointmentID: s.AppointmentID,
		HandoffID:     s.HandoffID,
	}
}
