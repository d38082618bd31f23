package session

import (
	"context"
	"errors"
)

// ErrNotFound indicates no session exists for the conversation.
var ErrNotFound = errors.New("session: not found")

// ErrBackingDataMissing indicates the conversation or contact backing the
// session no longer exists. The orchestrator treats this as a hard handoff
// trigger, not a retry.
var ErrBackingDataMissing = errors.New("session: backing conversation or contact no longer exists")

// Ref identifies the conversation a session belongs to.
type Ref struct {
	ConversationID string
	OrgID          string
	ContactID      string
}

// Store persists sessions. Every call that changes state or outcome must be
// durable before the orchestrator proceeds to the next step.
type Store interface {
	// LoadOrCreate returns the session for the conversation, creating it
	// lazily on the first inbound message. The offer context is attached only
	// at creation and immutable thereafter.
	LoadOrCreate(ctx context.Context, ref Ref, offer *OfferContext) (*Session, error)
	// Update persists the full mutable state of the session.
	Update(ctx context.Context, s *Session) error
	// Get returns the session for a conversation or ErrNotFound.
	Get(ctx context.Context, conversationID string) (*Session, error)
	// Reset returns the session to its initial state by explicit human
	// action: counters and outcome cleared, transcript history untouched.
	Reset(ctx context.Context, conversationID string) error
}
