package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session

	// MissingBacking marks conversation ids whose contact rows are gone,
	// causing LoadOrCreate to fail with ErrBackingDataMissing.
	MissingBacking map[string]bool
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:       make(map[string]*Session),
		MissingBacking: make(map[string]bool),
	}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) LoadOrCreate(_ context.Context, ref Ref, offer *OfferContext) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.MissingBacking[ref.ConversationID] {
		return nil, ErrBackingDataMissing
	}
	if sess, ok := m.sessions[ref.ConversationID]; ok {
		return cloneSession(sess), nil
	}

	now := time.Now().UTC()
	sess := &Session{
		ID:             uuid.New(),
		ConversationID: ref.ConversationID,
		OrgID:          ref.OrgID,
		ContactID:      ref.ContactID,
		State:          StateInboundReceived,
		Outcome:        OutcomePending,
		Offer:          offer,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.sessions[ref.ConversationID] = cloneSession(sess)
	return sess, nil
}

func (m *MemoryStore) Update(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[s.ConversationID]; !ok {
		return ErrNotFound
	}
	s.UpdatedAt = time.Now().UTC()
	m.sessions[s.ConversationID] = cloneSession(s)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, conversationID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[conversationID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSession(sess), nil
}

func (m *MemoryStore) Reset(_ context.Context, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[conversationID]
	if !ok {
		return ErrNotFound
	}

	fresh := &Session{
		ID:             sess.ID,
		ConversationID: sess.ConversationID,
		OrgID:          sess.OrgID,
		ContactID:      sess.ContactID,
		State:          StateInboundReceived,
		Outcome:        OutcomePending,
		Offer:          sess.Offer,
		CreatedAt:      sess.CreatedAt,
		UpdatedAt:      time.Now().UTC(),
	}
	m.sessions[conversationID] = fresh
	return nil
}

func cloneSession(s *Session) *Session {
	dup := *s
	if len(s.OfferedSlots) > 0 {
		dup.OfferedSlots = append(dup.OfferedSlots[:0:0], s.OfferedSlots...)
	}
	return &dup
}
