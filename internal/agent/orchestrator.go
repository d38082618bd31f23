package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/boostxlresults/intellisend/internal/crm"
	"github.com/boostxlresults/intellisend/internal/history"
	"github.com/boostxlresults/intellisend/internal/identity"
	"github.com/boostxlresults/intellisend/internal/intent"
	"github.com/boostxlresults/intellisend/internal/observability/metrics"
	"github.com/boostxlresults/intellisend/internal/reply"
	"github.com/boostxlresults/intellisend/internal/session"
	"github.com/boostxlresults/intellisend/internal/transcript"
	"github.com/boostxlresults/intellisend/pkg/logging"
)

var agentTracer = otel.Tracer("intellisend.internal.agent")

// Canned replies used when the response generator is unavailable. The
// customer always hears something; silence is reserved for opt-out.
const (
	fallbackHandoffText       = "Thanks for reaching out! A member of our team will follow up with you shortly."
	fallbackClarificationText = "Sorry, I didn't quite catch that. Are you looking to get an appointment scheduled?"
	fallbackAskAddressText    = "Great! What's the service address for the visit?"
	fallbackAskNameText       = "Perfect. Can I get your full name for the appointment?"
	fallbackNotInterestedText = "No problem at all. If anything changes, just text us back anytime."
	fallbackNotNowText        = "Totally understand. I'll check back another time. Text us whenever you're ready."
	fallbackWrongNumberText   = "So sorry about that! We'll update our records. Have a great day."
	fallbackPostConfirmText   = "You're welcome! Your appointment is all set. Text us if anything changes."
)

// Config holds the knobs the orchestrator is parameterized by. One
// orchestrator serves every organization; per-org variation comes through
// configuration, not parallel code paths.
type Config struct {
	// LoopGuardCap forces a handoff once a conversation reaches this many
	// inbound messages. Zero disables the guard.
	LoopGuardCap int
	// MaxOfferedSlots caps how many appointment windows are offered at once.
	MaxOfferedSlots int
	// AvailabilityDays is how far ahead to search for open windows.
	AvailabilityDays int

	JobTypeID        string
	BusinessUnitID   string
	JobSummaryPrefix string

	// DisabledOrgs lists organization ids automation is switched off for.
	DisabledOrgs []string
}

// Orchestrator is the booking state machine. One instance is shared by all
// conversations; all per-conversation state lives in the session store.
type Orchestrator struct {
	sessions   session.Store
	classifier intent.Classifier
	resolver   *identity.Resolver
	generator  reply.Generator
	crm        crm.Client
	handoffs   *HandoffService

	history     *history.Store
	transcripts *transcript.Store
	events      *EventLogger
	metrics     *metrics.BookingMetrics
	logger      *logging.Logger

	cfg          Config
	disabledOrgs map[string]struct{}
}

// Option configures optional orchestrator collaborators.
type Option func(*Orchestrator)

// WithHistory attaches the redis conversation window used for classification
// and generation context.
func WithHistory(h *history.Store) Option {
	return func(o *Orchestrator) { o.history = h }
}

// WithTranscripts attaches the durable postgres message log.
func WithTranscripts(t *transcript.Store) Option {
	return func(o *Orchestrator) { o.transcripts = t }
}

// WithEvents attaches the structured event logger.
func WithEvents(e *EventLogger) Option {
	return func(o *Orchestrator) { o.events = e }
}

// WithMetrics attaches prometheus booking metrics.
func WithMetrics(m *metrics.BookingMetrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithLogger overrides the default logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// NewOrchestrator builds the booking orchestrator. It panics if any required
// collaborator is nil.
func NewOrchestrator(
	sessions session.Store,
	classifier intent.Classifier,
	resolver *identity.Resolver,
	generator reply.Generator,
	crmClient crm.Client,
	handoffs *HandoffService,
	cfg Config,
	opts ...Option,
) *Orchestrator {
	if sessions == nil {
		panic("agent: session store is required")
	}
	if classifier == nil {
		panic("agent: intent classifier is required")
	}
	if resolver == nil {
		panic("agent: identity resolver is required")
	}
	if crmClient == nil {
		panic("agent: crm client is required")
	}
	if handoffs == nil {
		panic("agent: handoff service is required")
	}

	o := &Orchestrator{
		sessions:     sessions,
		classifier:   classifier,
		resolver:     resolver,
		generator:    generator,
		crm:          crmClient,
		handoffs:     handoffs,
		cfg:          cfg,
		logger:       logging.Default(),
		disabledOrgs: make(map[string]struct{}, len(cfg.DisabledOrgs)),
	}
	for _, org := range cfg.DisabledOrgs {
		o.disabledOrgs[org] = struct{}{}
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// HandleInboundMessage runs one step of the state machine for one inbound
// customer message. A nil directive means automation is disabled for the
// organization and the caller must take no action.
//
// The session is persisted before the directive is returned, so a crash
// between persist and send leaves the machine in a re-entrant state: the
// transport may retry the same logical message and the LastInboundID dedupe
// keeps the counter honest.
func (o *Orchestrator) HandleInboundMessage(ctx context.Context, in Inbound) (directive *Directive, err error) {
	if _, disabled := o.disabledOrgs[in.OrgID]; disabled {
		return nil, nil
	}

	ctx, span := agentTracer.Start(ctx, "agent.handle_inbound")
	defer span.End()
	span.SetAttributes(
		attribute.String("intellisend.org_id", in.OrgID),
		attribute.String("intellisend.conversation_id", in.ConversationID),
	)

	start := time.Now()
	defer func() {
		o.metrics.ObserveStepLatency(time.Since(start).Seconds())
	}()

	sess, loadErr := o.sessions.LoadOrCreate(ctx, session.Ref{
		ConversationID: in.ConversationID,
		OrgID:          in.OrgID,
		ContactID:      in.ContactID,
	}, in.Offer)
	if loadErr != nil {
		if errors.Is(loadErr, session.ErrBackingDataMissing) {
			// The contact behind this conversation is gone; nothing to
			// persist, but the customer still gets a human follow-up.
			o.metrics.ObserveHandoff(HandoffReasonBackingMissing)
			return &Directive{
				ShouldRespond: true,
				Text:          fallbackHandoffText,
				State:         session.StateHandoff,
				Outcome:       session.OutcomeNeedsHuman,
			}, nil
		}
		span.RecordError(loadErr)
		return nil, fmt.Errorf("agent: load session: %w", loadErr)
	}

	// Whatever goes wrong below, the customer receives a reply rather than
	// silence, except after an opt-out.
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("panic while processing inbound message",
				"panic", fmt.Sprintf("%v", r),
				"conversation_id", in.ConversationID,
				"org_id", in.OrgID,
			)
			sess.State = session.StateError
			sess.SetOutcome(session.OutcomeNeedsHuman)
			if updateErr := o.sessions.Update(ctx, sess); updateErr != nil {
				o.logger.Error("failed to persist error state", "error", updateErr,
					"conversation_id", in.ConversationID)
			}
			err = nil
			if sess.Outcome == session.OutcomeOptOut {
				directive = &Directive{State: sess.State, Outcome: sess.Outcome}
				return
			}
			o.metrics.ObserveHandoff(HandoffReasonInternalError)
			directive = &Directive{
				ShouldRespond: true,
				Text:          fallbackHandoffText,
				State:         sess.State,
				Outcome:       sess.Outcome,
				ExternalIDs:   externalIDs(sess),
			}
		}
	}()

	o.events.MessageReceived(ctx, in.ConversationID, in.OrgID, in.Body)

	// Count each logical message exactly once across redeliveries.
	if in.MessageID == "" || in.MessageID != sess.LastInboundID {
		sess.MessageCount++
		sess.LastInboundID = in.MessageID
	}
	if sess.Name == "" && in.ContactName != "" {
		sess.Name = in.ContactName
	}

	o.recordCustomerTurn(ctx, in)

	// An opted-out contact is never texted again, not even by the loop guard.
	if sess.Outcome == session.OutcomeOptOut {
		return o.silent(ctx, sess)
	}

	if sess.LoopGuardTripped(o.cfg.LoopGuardCap) {
		return o.escalate(ctx, sess, in, HandoffReasonLoopGuard)
	}

	if sess.State.Terminal() {
		return o.handleTerminal(ctx, sess, in)
	}

	hist := o.loadHistory(ctx, in.ConversationID)

	// Mid-flow states expect a specific answer shape; interpret the raw
	// message against that shape before spending a classifier call.
	if sess.State.MidFlow() {
		if d, handled, merr := o.handleMidFlowRaw(ctx, sess, in, hist); handled {
			return d, merr
		}
	}

	res := o.classify(ctx, sess, in, hist)
	sess.LastIntent = string(res.Intent)
	sess.MergeExtracted(res.Extracted.Name, res.Extracted.Address, res.Extracted.Email, res.Extracted.PreferredTime)
	o.metrics.ObserveInbound(string(res.Intent))

	return o.dispatch(ctx, sess, in, res, hist)
}

// classify never fails: the injected classifier carries its own heuristic
// fallback, and if even that errors the message is treated as unclear.
func (o *Orchestrator) classify(ctx context.Context, sess *session.Session, in Inbound, hist []history.Turn) intent.Result {
	res, err := o.classifier.Classify(ctx, intent.Request{
		Message: in.Body,
		History: hist,
		Offer:   sess.Offer,
	})
	if err != nil {
		o.logger.Warn("classification failed, treating as unclear",
			"error", err, "conversation_id", in.ConversationID)
		o.events.ErrorOccurred(ctx, in.ConversationID, in.OrgID, "classify", err)
		return intent.Result{Intent: intent.IntentUnclear}
	}
	o.events.IntentClassified(ctx, in.ConversationID, in.OrgID, string(res.Intent), res.Confidence, "classifier")
	return res
}

func (o *Orchestrator) dispatch(ctx context.Context, sess *session.Session, in Inbound, res intent.Result, hist []history.Turn) (*Directive, error) {
	switch res.Intent {
	case intent.IntentOptOut:
		// The transport owns the opt-out confirmation; the agent goes quiet.
		o.events.OptOut(ctx, in.ConversationID, in.OrgID)
		o.transition(ctx, sess, session.StateCompleted)
		sess.SetOutcome(session.OutcomeOptOut)
		o.metrics.ObserveBooking(string(session.OutcomeOptOut))
		return o.silent(ctx, sess)

	case intent.IntentNotInterested:
		o.transition(ctx, sess, session.StateCompleted)
		sess.SetOutcome(session.OutcomeNotInterested)
		o.metrics.ObserveBooking(string(session.OutcomeNotInterested))
		text := o.say(ctx, sess, in, hist,
			"The customer declined the offer. Thank them warmly, let them know they can text back anytime, and close the conversation.",
			fallbackNotInterestedText)
		return o.respond(ctx, sess, text)

	case intent.IntentWrongNumber:
		o.transition(ctx, sess, session.StateCompleted)
		sess.SetOutcome(session.OutcomeNotInterested)
		o.metrics.ObserveBooking(string(session.OutcomeNotInterested))
		return o.respond(ctx, sess, fallbackWrongNumberText)

	case intent.IntentNotNow:
		o.transition(ctx, sess, session.StateQualifying)
		text := o.say(ctx, sess, in, hist,
			"The customer is interested but not right now. Acknowledge kindly and leave the door open without pressure.",
			fallbackNotNowText)
		return o.respond(ctx, sess, text)

	case intent.IntentInfoRequest:
		o.transition(ctx, sess, session.StateQualifying)
		instruction := "Answer the customer's question about the offer briefly, then ask if they'd like to get scheduled."
		if res.Extracted.Question != "" {
			instruction = fmt.Sprintf("The customer asked: %q. Answer briefly using the offer details, then ask if they'd like to get scheduled.", res.Extracted.Question)
		}
		text := o.say(ctx, sess, in, hist, instruction, fallbackClarificationText)
		return o.respond(ctx, sess, text)

	case intent.IntentCallMe:
		return o.escalate(ctx, sess, in, HandoffReasonCallRequested)

	case intent.IntentReschedule:
		return o.escalate(ctx, sess, in, HandoffReasonReschedule)

	case intent.IntentBookYes, intent.IntentInterested:
		return o.continueBooking(ctx, sess, in, hist)

	case intent.IntentConfirmYes:
		return o.handleConfirmYes(ctx, sess, in, hist)

	case intent.IntentConfirmNo:
		return o.handleConfirmNo(ctx, sess, in, hist)

	default:
		return o.handleUnclear(ctx, sess, in, hist)
	}
}

// handleConfirmYes routes a "yes" by the question it answers. A confirmed
// identity goes straight to slot proposal; re-running resolution after an
// explicit confirmation could flip the match.
func (o *Orchestrator) handleConfirmYes(ctx context.Context, sess *session.Session, in Inbound, hist []history.Turn) (*Directive, error) {
	switch sess.State {
	case session.StateAwaitingIdentityConfirm, session.StateAwaitingAddressConfirm:
		return o.acceptPendingMatch(ctx, sess, in, hist)
	default:
		// A bare "yes" outside a confirmation state is booking interest.
		return o.continueBooking(ctx, sess, in, hist)
	}
}

func (o *Orchestrator) handleConfirmNo(ctx context.Context, sess *session.Session, in Inbound, hist []history.Turn) (*Directive, error) {
	switch sess.State {
	case session.StateAwaitingIdentityConfirm:
		sess.ClearPendingMatch()
		return o.askForAddress(ctx, sess, in, hist,
			"The identity match was wrong. Apologize briefly and ask for the service address so we can look them up properly.")
	case session.StateAwaitingAddressConfirm:
		sess.ClearPendingMatch()
		sess.Address = ""
		return o.askForAddress(ctx, sess, in, hist,
			"The address on file was wrong. Ask for the correct service address.")
	default:
		return o.handleUnclear(ctx, sess, in, hist)
	}
}

func (o *Orchestrator) handleUnclear(ctx context.Context, sess *session.Session, in Inbound, hist []history.Turn) (*Directive, error) {
	if sess.State == session.StateInboundReceived {
		o.transition(ctx, sess, session.StateQualifying)
	}
	text := o.say(ctx, sess, in, hist, reprompt(sess), fallbackClarificationText)
	return o.respond(ctx, sess, text)
}

// reprompt picks the clarification instruction for the question the state is
// waiting on.
func reprompt(sess *session.Session) string {
	switch sess.State {
	case session.StateProposingTimes:
		return fmt.Sprintf("The customer's reply didn't pick one of the %d offered time slots. Ask them to reply with just the number of the slot they want.", len(sess.OfferedSlots))
	case session.StateCollectingAddress:
		return "We still need the service address. Ask for it again politely."
	case session.StateAwaitingName:
		return "We still need the customer's full name. Ask for it again politely."
	case session.StateAwaitingIdentityConfirm, session.StateAwaitingAddressConfirm:
		return "We asked a yes/no confirmation question. Ask them to reply yes or no."
	default:
		return "The customer's reply was unclear. Gently ask whether they'd like to get an appointment scheduled."
	}
}

// handleMidFlowRaw interprets the message against the shape the current state
// expects. handled=false falls through to intent classification.
func (o *Orchestrator) handleMidFlowRaw(ctx context.Context, sess *session.Session, in Inbound, hist []history.Turn) (*Directive, bool, error) {
	switch sess.State {
	case session.StateProposingTimes:
		n, ok := parseSlotSelection(in.Body)
		if !ok {
			return nil, false, nil
		}
		o.events.IntentClassified(ctx, in.ConversationID, in.OrgID, "slot_selection", 1, "raw_shape")
		if n < 1 || n > len(sess.OfferedSlots) {
			text := o.say(ctx, sess, in, hist, reprompt(sess),
				fmt.Sprintf("Sorry, that's not one of the options. Please reply 1-%d.", len(sess.OfferedSlots)))
			d, err := o.respond(ctx, sess, text)
			return d, true, err
		}
		d, err := o.bookSlot(ctx, sess, in, n)
		return d, true, err

	case session.StateCollectingAddress:
		if !intent.LooksLikeAddress(in.Body) {
			return nil, false, nil
		}
		// The whole reply is the address in this state; the extraction regex
		// would chop "123 Main St, Tempe, AZ" at the first comma.
		ex := intent.ExtractFields(in.Body)
		sess.MergeExtracted("", strings.TrimSpace(in.Body), ex.Email, ex.PreferredTime)
		o.events.IntentClassified(ctx, in.ConversationID, in.OrgID, "address_reply", 1, "raw_shape")
		d, err := o.continueBooking(ctx, sess, in, hist)
		return d, true, err

	case session.StateAwaitingName:
		// "not interested" or "call me" passes the name shape check; any
		// reply a keyword rule recognizes goes to classification instead.
		if bareReplyIsControlWord(in.Body) || intent.MatchesKeywordRule(in.Body) || !intent.LooksLikeName(in.Body) {
			return nil, false, nil
		}
		sess.MergeExtracted(in.Body, "", "", "")
		o.events.IntentClassified(ctx, in.ConversationID, in.OrgID, "name_reply", 1, "raw_shape")
		d, err := o.continueBooking(ctx, sess, in, hist)
		return d, true, err

	case session.StateAwaitingIdentityConfirm, session.StateAwaitingAddressConfirm:
		yes, ok := parseYesNo(in.Body)
		if !ok {
			return nil, false, nil
		}
		o.events.IntentClassified(ctx, in.ConversationID, in.OrgID, "confirmation_reply", 1, "raw_shape")
		var d *Directive
		var err error
		if yes {
			d, err = o.acceptPendingMatch(ctx, sess, in, hist)
		} else if sess.State == session.StateAwaitingAddressConfirm {
			sess.ClearPendingMatch()
			sess.Address = ""
			d, err = o.askForAddress(ctx, sess, in, hist,
				"The address on file was wrong. Ask for the correct service address.")
		} else {
			sess.ClearPendingMatch()
			d, err = o.askForAddress(ctx, sess, in, hist,
				"The identity match was wrong. Apologize briefly and ask for the service address so we can look them up properly.")
		}
		return d, true, err
	}
	return nil, false, nil
}

// bareReplyIsControlWord keeps short control replies ("yes", "stop", "ok")
// from being mistaken for a name.
func bareReplyIsControlWord(body string) bool {
	if _, ok := parseYesNo(body); ok {
		return true
	}
	lower := strings.ToLower(body)
	for _, w := range []string{"stop", "unsubscribe", "quit", "cancel", "help"} {
		if containsWord(lower, w) {
			return true
		}
	}
	return false
}

// handleTerminal processes a message that arrives after the machine stopped.
// The conversation never dead-ends silently: anything that is not an opt-out
// is routed to a human, reusing the existing handoff record when one exists.
func (o *Orchestrator) handleTerminal(ctx context.Context, sess *session.Session, in Inbound) (*Directive, error) {
	hist := o.loadHistory(ctx, in.ConversationID)
	res := o.classify(ctx, sess, in, hist)
	sess.LastIntent = string(res.Intent)
	o.metrics.ObserveInbound(string(res.Intent))

	if res.Intent == intent.IntentOptOut {
		o.events.OptOut(ctx, in.ConversationID, in.OrgID)
		o.transition(ctx, sess, session.StateCompleted)
		sess.SetOutcome(session.OutcomeOptOut)
		return o.silent(ctx, sess)
	}

	reason := HandoffReasonPostTerminal
	switch res.Intent {
	case intent.IntentReschedule:
		reason = HandoffReasonReschedule
	case intent.IntentCallMe:
		reason = HandoffReasonCallRequested
	default:
		// A booked customer texting "thanks" does not need a CSR. Thank them
		// once, then the conversation is done.
		if sess.State == session.StateConfirmed {
			o.transition(ctx, sess, session.StateCompleted)
			return o.respond(ctx, sess, fallbackPostConfirmText)
		}
		if sess.State == session.StateCompleted {
			return o.silent(ctx, sess)
		}
	}
	return o.escalate(ctx, sess, in, reason)
}

// escalate moves the session to the handoff state, creates the external
// record at most once, and always answers the customer.
func (o *Orchestrator) escalate(ctx context.Context, sess *session.Session, in Inbound, reason string) (*Directive, error) {
	o.transition(ctx, sess, session.StateHandoff)

	outcome := session.OutcomeNeedsHuman
	if reason == HandoffReasonCallRequested {
		outcome = session.OutcomeCSRBooking
	}
	sess.SetOutcome(outcome)

	id := o.handoffs.Handoff(ctx, sess, in.ContactName, in.Phone, in.Body, reason)
	o.events.HandoffCreated(ctx, in.ConversationID, in.OrgID, reason, id)
	o.metrics.ObserveHandoff(reason)
	o.metrics.ObserveBooking(string(sess.Outcome))

	// Store the handoff id before anything else can fail. Once the external
	// record exists, erroring out would redeliver the message and open a
	// second ticket, so a failed persist is logged and the customer still
	// gets the reply.
	if err := o.sessions.Update(ctx, sess); err != nil {
		if id == "" {
			return nil, fmt.Errorf("agent: persist session: %w", err)
		}
		o.logger.Error("session persist failed after handoff record creation",
			"error", err,
			"conversation_id", sess.ConversationID,
			"org_id", sess.OrgID,
			"handoff_id", id,
		)
		o.recordAgentTurn(ctx, sess.ConversationID, fallbackHandoffText)
		return &Directive{
			ShouldRespond: true,
			Text:          fallbackHandoffText,
			State:         sess.State,
			Outcome:       sess.Outcome,
			ExternalIDs:   externalIDs(sess),
		}, nil
	}

	return o.respond(ctx, sess, fallbackHandoffText)
}

// transition changes state, emitting exactly one event per change.
func (o *Orchestrator) transition(ctx context.Context, sess *session.Session, to session.State) {
	if sess.State == to {
		return
	}
	o.events.StateTransition(ctx, sess.ConversationID, sess.OrgID, string(sess.State), string(to))
	o.metrics.ObserveTransition(string(sess.State), string(to))
	sess.State = to
}

// say asks the response generator for customer-facing text, falling back to
// a canned line when generation fails. Never used for slot lists or booking
// confirmations; those must be verbatim.
func (o *Orchestrator) say(ctx context.Context, sess *session.Session, in Inbound, hist []history.Turn, instruction, fallback string) string {
	if o.generator == nil {
		return fallback
	}
	text, err := o.generator.Generate(ctx, reply.Request{
		Instruction: instruction,
		ContactName: firstNonEmpty(sess.Name, in.ContactName),
		History:     hist,
		Offer:       sess.Offer,
	})
	if err != nil {
		o.logger.Warn("reply generation failed, using canned text",
			"error", err, "conversation_id", sess.ConversationID)
		return fallback
	}
	return text
}

// respond persists the session and returns a send directive. Persist failure
// aborts the step so the caller can retry the same message safely.
func (o *Orchestrator) respond(ctx context.Context, sess *session.Session, text string) (*Directive, error) {
	if err := o.sessions.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("agent: persist session: %w", err)
	}
	o.recordAgentTurn(ctx, sess.ConversationID, text)
	return &Directive{
		ShouldRespond: true,
		Text:          text,
		State:         sess.State,
		Outcome:       sess.Outcome,
		ExternalIDs:   externalIDs(sess),
	}, nil
}

func (o *Orchestrator) silent(ctx context.Context, sess *session.Session) (*Directive, error) {
	if err := o.sessions.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("agent: persist session: %w", err)
	}
	return &Directive{
		State:       sess.State,
		Outcome:     sess.Outcome,
		ExternalIDs: externalIDs(sess),
	}, nil
}

func (o *Orchestrator) loadHistory(ctx context.Context, conversationID string) []history.Turn {
	if o.history == nil {
		return nil
	}
	turns, err := o.history.Load(ctx, conversationID)
	if err != nil {
		o.logger.Warn("failed to load conversation history", "error", err,
			"conversation_id", conversationID)
		return nil
	}
	return turns
}

func (o *Orchestrator) recordCustomerTurn(ctx context.Context, in Inbound) {
	if o.history != nil {
		if err := o.history.Append(ctx, in.ConversationID, history.Turn{Role: history.RoleCustomer, Body: in.Body}); err != nil {
			o.logger.Warn("failed to append history turn", "error", err,
				"conversation_id", in.ConversationID)
		}
	}
	if err := o.transcripts.AppendMessage(ctx, in.ConversationID, transcript.Message{
		Role:              transcript.RoleCustomer,
		Body:              in.Body,
		FromPhone:         in.Phone,
		ProviderMessageID: in.MessageID,
	}); err != nil {
		o.logger.Warn("failed to append transcript message", "error", err,
			"conversation_id", in.ConversationID)
	}
}

func (o *Orchestrator) recordAgentTurn(ctx context.Context, conversationID, text string) {
	if o.history != nil {
		if err := o.history.Append(ctx, conversationID, history.Turn{Role: history.RoleAssistant, Body: text}); err != nil {
			o.logger.Warn("failed to append history turn", "error", err,
				"conversation_id", conversationID)
		}
	}
	if err := o.transcripts.AppendMessage(ctx, conversationID, transcript.Message{
		Role: transcript.RoleAgent,
		Body: text,
	}); err != nil {
		o.logger.Warn("failed to append transcript message", "error", err,
			"conversation_id", conversationID)
	}
}
