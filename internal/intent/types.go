// Package intent classifies a customer's SMS reply into a coded intent plus
// any extracted fields. Two implementations exist: an LLM-backed classifier
// and a deterministic keyword heuristic. They are selected explicitly at
// construction, never by probing environment state at call time.
package intent

import (
	"context"

	"github.com/boostxlresults/intellisend/internal/history"
	"github.com/boostxlresults/intellisend/internal/session"
)

// Intent is the coded classification of a customer's SMS reply.
type Intent string

const (
	IntentOptOut        Intent = "opt_out"
	IntentNotInterested Intent = "not_interested"
	IntentNotNow        Intent = "not_now"
	IntentInfoRequest   Intent = "info_request"
	IntentBookYes       Intent = "book_yes"
	IntentInterested    Intent = "interested"
	IntentReschedule    Intent = "reschedule"
	IntentWrongNumber   Intent = "wrong_number"
	IntentCallMe        Intent = "call_me"
	IntentConfirmYes    Intent = "confirm_yes"
	IntentConfirmNo     Intent = "confirm_no"
	IntentUnclear       Intent = "unclear"
)

// Valid reports whether the intent is one of the known codes.
func (i Intent) Valid() bool {
	switch i {
	case IntentOptOut, IntentNotInterested, IntentNotNow, IntentInfoRequest,
		IntentBookYes, IntentInterested, IntentReschedule, IntentWrongNumber,
		IntentCallMe, IntentConfirmYes, IntentConfirmNo, IntentUnclear:
		return true
	}
	return false
}

// WantsBooking reports whether the intent starts or continues the booking flow.
func (i Intent) WantsBooking() bool {
	return i == IntentBookYes || i == IntentInterested || i == IntentReschedule
}

// Extracted holds fields pulled out of the message text.
type Extracted struct {
	Address       string `json:"address,omitempty"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	PreferredTime string `json:"preferredTime,omitempty"`
	Question      string `json:"question,omitempty"`
}

// Request carries the message plus the context the classifier may use.
type Request struct {
	Message string
	History []history.Turn
	Offer   *session.OfferContext
}

// Result is the classification outcome.
type Result struct {
	Intent     Intent    `json:"intent"`
	Confidence float64   `json:"confidence"`
	Reasoning  string    `json:"reasoning,omitempty"`
	Extracted  Extracted `json:"extracted"`
}

// Classifier maps free text plus recent history into a coded intent.
type Classifier interface {
	Classify(ctx context.Context, req Request) (Result, error)
}
