package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/boostxlresults/intellisend/internal/crm"
	"github.com/boostxlresults/intellisend/internal/history"
	"github.com/boostxlresults/intellisend/internal/identity"
	"github.com/boostxlresults/intellisend/internal/session"
)

// continueBooking advances the booking sub-flow from wherever it stands:
// resolve identity, collect whatever is missing, create the customer if
// needed, then propose times.
func (o *Orchestrator) continueBooking(ctx context.Context, sess *session.Session, in Inbound, hist []history.Turn) (*Directive, error) {
	if sess.CustomerID != "" && sess.LocationID != "" {
		return o.proposeTimes(ctx, sess, in, hist)
	}

	if sess.State == session.StateInboundReceived {
		o.transition(ctx, sess, session.StateQualifying)
	}
	o.transition(ctx, sess, session.StateMatchingRecords)

	res, err := o.resolver.Resolve(ctx, sess.OrgID, identity.Input{
		Phone:   in.Phone,
		Address: sess.Address,
		Name:    sess.Name,
	})
	if err != nil {
		o.events.ErrorOccurred(ctx, in.ConversationID, in.OrgID, "identity_resolve", err)
		return o.escalate(ctx, sess, in, HandoffReasonCRMFailure)
	}

	if res.AutoAcceptable {
		m := res.Matches[0]
		o.events.IdentityResolved(ctx, in.ConversationID, in.OrgID, m.MatchedBy, 1, true)
		sess.CustomerID = m.CustomerID
		sess.LocationID = m.LocationID
		if sess.Name == "" {
			sess.Name = m.DisplayName
		}
		return o.proposeTimes(ctx, sess, in, hist)
	}

	if len(res.Matches) > 0 {
		m := res.Matches[0]
		o.events.IdentityResolved(ctx, in.ConversationID, in.OrgID, m.MatchedBy, len(res.Matches), false)
		sess.PendingMatchCustomerID = m.CustomerID
		sess.PendingMatchLocationID = m.LocationID
		sess.PendingMatchName = m.DisplayName

		if m.MatchedBy == identity.MatchedByAddress {
			o.transition(ctx, sess, session.StateAwaitingAddressConfirm)
			text := o.say(ctx, sess, in, hist,
				fmt.Sprintf("We found an existing account under the name %s at the address they gave. Ask them to confirm with yes or no that this is their account.", m.DisplayName),
				fmt.Sprintf("I found an account for %s at that address. Is that you? (yes/no)", m.DisplayName))
			return o.respond(ctx, sess, text)
		}

		o.transition(ctx, sess, session.StateAwaitingIdentityConfirm)
		text := o.say(ctx, sess, in, hist,
			fmt.Sprintf("We found an existing account that may be theirs under the name %s. Ask them to confirm with yes or no that this is them.", m.DisplayName),
			fmt.Sprintf("I found an account under %s. Is that you? (yes/no)", m.DisplayName))
		return o.respond(ctx, sess, text)
	}

	o.events.IdentityResolved(ctx, in.ConversationID, in.OrgID, "", 0, false)

	if sess.Address == "" {
		return o.askForAddress(ctx, sess, in, hist,
			"They want to book. Ask for the service address for the visit.")
	}
	if sess.Name == "" {
		return o.askForName(ctx, sess, in, hist)
	}
	return o.createCustomerAndPropose(ctx, sess, in, hist)
}

// acceptPendingMatch commits the confirmed candidate and goes straight to
// slot proposal. Resolution is not re-run after an explicit confirmation.
func (o *Orchestrator) acceptPendingMatch(ctx context.Context, sess *session.Session, in Inbound, hist []history.Turn) (*Directive, error) {
	if sess.PendingMatchCustomerID == "" {
		return o.continueBooking(ctx, sess, in, hist)
	}
	sess.CustomerID = sess.PendingMatchCustomerID
	sess.LocationID = sess.PendingMatchLocationID
	if sess.Name == "" {
		sess.Name = sess.PendingMatchName
	}
	sess.ClearPendingMatch()
	return o.proposeTimes(ctx, sess, in, hist)
}

func (o *Orchestrator) askForAddress(ctx context.Context, sess *session.Session, in Inbound, hist []history.Turn, instruction string) (*Directive, error) {
	o.transition(ctx, sess, session.StateCollectingAddress)
	text := o.say(ctx, sess, in, hist, instruction, fallbackAskAddressText)
	return o.respond(ctx, sess, text)
}

func (o *Orchestrator) askForName(ctx context.Context, sess *session.Session, in Inbound, hist []history.Turn) (*Directive, error) {
	o.transition(ctx, sess, session.StateAwaitingName)
	text := o.say(ctx, sess, in, hist,
		"We have their address but not their name. Ask for their full name for the appointment.",
		fallbackAskNameText)
	return o.respond(ctx, sess, text)
}

func (o *Orchestrator) createCustomerAndPropose(ctx context.Context, sess *session.Session, in Inbound, hist []history.Turn) (*Directive, error) {
	o.transition(ctx, sess, session.StateCreatingCustomer)
	if err := o.sessions.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("agent: persist session: %w", err)
	}

	customer, err := o.crm.CreateCustomer(ctx, sess.OrgID, crm.NewCustomer{
		Name:    sess.Name,
		Phone:   in.Phone,
		Email:   sess.Email,
		Address: sess.Address,
	})
	if err != nil {
		o.events.ErrorOccurred(ctx, in.ConversationID, in.OrgID, "create_customer", err)
		return o.escalate(ctx, sess, in, HandoffReasonCRMFailure)
	}

	sess.CustomerID = customer.ID
	sess.LocationID = customer.LocationID
	return o.proposeTimes(ctx, sess, in, hist)
}

// proposeTimes fetches availability and offers up to the configured number of
// slots. Zero slots is a hard handoff; fabricated availability is never
// presented to a customer.
func (o *Orchestrator) proposeTimes(ctx context.Context, sess *session.Session, in Inbound, _ []history.Turn) (*Directive, error) {
	slots, err := o.crm.GetAvailability(ctx, sess.OrgID, crm.AvailabilityRequest{
		BusinessUnitID: o.cfg.BusinessUnitID,
		MaxSlots:       o.cfg.MaxOfferedSlots,
		DaysAhead:      o.cfg.AvailabilityDays,
	})
	if err != nil {
		o.events.ErrorOccurred(ctx, in.ConversationID, in.OrgID, "get_availability", err)
		return o.escalate(ctx, sess, in, HandoffReasonCRMFailure)
	}
	if len(slots) == 0 {
		return o.escalate(ctx, sess, in, HandoffReasonNoAvailability)
	}
	if o.cfg.MaxOfferedSlots > 0 && len(slots) > o.cfg.MaxOfferedSlots {
		slots = slots[:o.cfg.MaxOfferedSlots]
	}

	sess.OfferedSlots = slots
	sess.SelectedSlotIndex = 0
	o.transition(ctx, sess, session.StateProposingTimes)
	o.events.SlotsOffered(ctx, in.ConversationID, in.OrgID, len(slots))

	// Slot lines are rendered verbatim, never paraphrased by the generator.
	return o.respond(ctx, sess, formatSlotOffer(slots))
}

// bookSlot creates the CRM job for the chosen slot. The BOOKING_JOB state is
// durable before the external call, and the call is never retried inline.
func (o *Orchestrator) bookSlot(ctx context.Context, sess *session.Session, in Inbound, ordinal int) (*Directive, error) {
	if o.cfg.JobTypeID == "" || o.cfg.BusinessUnitID == "" ||
		sess.CustomerID == "" || sess.LocationID == "" {
		o.logger.Error("booking preconditions missing",
			"conversation_id", sess.ConversationID,
			"has_job_type", o.cfg.JobTypeID != "",
			"has_business_unit", o.cfg.BusinessUnitID != "",
			"has_customer", sess.CustomerID != "",
			"has_location", sess.LocationID != "",
		)
		return o.escalate(ctx, sess, in, HandoffReasonCRMFailure)
	}

	slot := sess.OfferedSlots[ordinal-1]
	sess.SelectedSlotIndex = ordinal
	o.events.SlotSelected(ctx, in.ConversationID, in.OrgID, ordinal, slot.FormatDisplay())

	o.transition(ctx, sess, session.StateBookingJob)
	if err := o.sessions.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("agent: persist session: %w", err)
	}

	job, err := o.crm.CreateJob(ctx, sess.OrgID, crm.NewJob{
		CustomerID:     sess.CustomerID,
		LocationID:     sess.LocationID,
		JobTypeID:      o.cfg.JobTypeID,
		BusinessUnitID: o.cfg.BusinessUnitID,
		Summary:        o.jobSummary(sess),
		Slot:           slot,
	})
	if err != nil {
		o.events.ErrorOccurred(ctx, in.ConversationID, in.OrgID, "create_job", err)
		return o.escalate(ctx, sess, in, HandoffReasonCRMFailure)
	}

	sess.JobID = job.ID
	sess.AppointmentID = job.AppointmentID
	o.transition(ctx, sess, session.StateConfirmed)
	sess.SetOutcome(session.OutcomeFullBooking)
	o.events.JobBooked(ctx, in.ConversationID, in.OrgID, job.ID, job.AppointmentID)
	o.metrics.ObserveBooking(string(session.OutcomeFullBooking))

	return o.respond(ctx, sess, formatConfirmation(slot))
}

func (o *Orchestrator) jobSummary(sess *session.Session) string {
	var parts []string
	if o.cfg.JobSummaryPrefix != "" {
		parts = append(parts, o.cfg.JobSummaryPrefix)
	}
	if sess.Offer != nil && sess.Offer.Name != "" {
		parts = append(parts, sess.Offer.Name)
	}
	parts = append(parts, "booked via SMS")
	if sess.PreferredTime != "" {
		parts = append(parts, "customer prefers "+sess.PreferredTime)
	}
	return strings.Join(parts, " - ")
}

// formatSlotOffer renders the numbered slot list exactly as the ordinals will
// be matched on the next message.
func formatSlotOffer(slots []crm.Slot) string {
	var b strings.Builder
	b.WriteString("Great news, I can get you scheduled! Which of these works best?\n")
	for i, slot := range slots {
		fmt.Fprintf(&b, "%d) %s\n", i+1, slot.FormatDisplay())
	}
	if len(slots) == 1 {
		b.WriteString("Reply 1 to confirm.")
	} else {
		fmt.Fprintf(&b, "Just reply with a number 1-%d.", len(slots))
	}
	return b.String()
}

func formatConfirmation(slot crm.Slot) string {
	return fmt.Sprintf("You're all set for %s. We'll see you then! Text us here if anything comes up.", slot.FormatDisplay())
}
