package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boostxlresults/intellisend/internal/session"
)

type fakeSink struct {
	id      string
	err     error
	calls   int
	lastRec HandoffRecord
}

func (f *fakeSink) CreateHandoffRecord(_ context.Context, rec HandoffRecord) (string, error) {
	f.calls++
	f.lastRec = rec
	return f.id, f.err
}

func TestHandoffCreatesRecordOnce(t *testing.T) {
	sink := &fakeSink{id: "handoff-1"}
	svc := NewHandoffService(sink, nil)
	sess := &session.Session{ConversationID: "sms:org-1:+15550001111", OrgID: "org-1", State: session.StateQualifying}

	id := svc.Handoff(context.Background(), sess, "Maria", "+15550001111", "call me", HandoffReasonCallRequested)
	assert.Equal(t, "handoff-1", id)
	assert.Equal(t, "handoff-1", sess.HandoffID)
	assert.Equal(t, 1, sink.calls)
	assert.Equal(t, HandoffReasonCallRequested, sink.lastRec.Reason)

	// Second call reuses the existing record.
	id = svc.Handoff(context.Background(), sess, "Maria", "+15550001111", "call me", HandoffReasonCallRequested)
	assert.Equal(t, "handoff-1", id)
	assert.Equal(t, 1, sink.calls)
}

func TestHandoffSinkFailureIsSwallowed(t *testing.T) {
	sink := &fakeSink{err: errors.New("ticket system down")}
	svc := NewHandoffService(sink, nil)
	sess := &session.Session{ConversationID: "sms:org-1:+15550001111", OrgID: "org-1"}

	id := svc.Handoff(context.Background(), sess, "", "+15550001111", "", HandoffReasonLoopGuard)
	assert.Empty(t, id)
	assert.Empty(t, sess.HandoffID)
}

func TestHandoffWithoutSink(t *testing.T) {
	svc := NewHandoffService(nil, nil)
	sess := &session.Session{ConversationID: "sms:org-1:+15550001111", OrgID: "org-1"}

	id := svc.Handoff(context.Background(), sess, "", "", "", HandoffReasonLoopGuard)
	assert.Empty(t, id)
}

func TestBuildHandoffSummary(t *testing.T) {
	sess := &session.Session{
		ConversationID: "sms:org-1:+15550001111",
		OrgID:          "org-1",
		State:          session.StateProposingTimes,
		MessageCount:   5,
		Name:           "Maria Gonzalez",
		Address:        "413 Maple Ave",
		Email:          "maria@example.com",
		PreferredTime:  "mornings",
		CustomerID:     "cust-1",
		Offer:          &session.OfferContext{Name: "Fall Tune-Up", Price: "$89"},
	}

	summary := BuildHandoffSummary(sess, "", "+15550001111", "can you call me", HandoffReasonCallRequested)
	assert.Contains(t, summary, "Maria Gonzalez")
	assert.Contains(t, summary, "413 Maple Ave")
	assert.Contains(t, summary, "Fall Tune-Up")
	assert.Contains(t, summary, "proposing_times after 5 messages")
	assert.Contains(t, summary, `"can you call me"`)
	require.LessOrEqual(t, len(summary), maxSummaryLength)
}

func TestBuildHandoffSummaryBounded(t *testing.T) {
	sess := &session.Session{
		ConversationID: "sms:org-1:+15550001111",
		Name:           strings.Repeat("x", 400),
		Address:        strings.Repeat("y", 400),
	}

	summary := BuildHandoffSummary(sess, "", "+15550001111", strings.Repeat("z", 400), HandoffReasonLoopGuard)
	assert.Equal(t, maxSummaryLength, len(summary))
}
