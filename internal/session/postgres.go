package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore persists sessions to PostgreSQL.
type PGStore struct {
	pool rowQuerier
}

// NewPGStore builds a Postgres-backed session store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	if pool == nil {
		panic("session: pgx pool required")
	}
	return &PGStore{pool: pool}
}

func newPGStoreWithQuerier(q rowQuerier) *PGStore {
	if q == nil {
		panic("session: querier required")
	}
	return &PGStore{pool: q}
}

var _ Store = (*PGStore)(nil)

const sessionColumns = `
	id, conversation_id, org_id, contact_id, state, outcome,
	message_count, last_inbound_id,
	name, address, email, preferred_time,
	customer_id, location_id, job_id, appointment_id, handoff_id,
	pending_customer_id, pending_location_id, pending_name,
	offered_slots, selected_slot_index, last_intent, offer,
	created_at, updated_at`

// LoadOrCreate returns the session for the conversation, creating it lazily.
// The contact row must still exist; otherwise ErrBackingDataMissing is returned.
func (s *PGStore) LoadOrCreate(ctx context.Context, ref Ref, offer *OfferContext) (*Session, error) {
	existing, err := s.Get(ctx, ref.ConversationID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	var exists int
	err = s.pool.QueryRow(ctx,
		`SELECT 1 FROM contacts WHERE id = $1 AND org_id = $2`,
		ref.ContactID, ref.OrgID,
	).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBackingDataMissing
	}
	if err != nil {
		return nil, fmt.Errorf("session: failed to check contact: %w", err)
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

	var offerJSON []byte
	if offer != nil {
		offerJSON, err = marshalJSON(offer)
		if err != nil {
			return nil, err
		}
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO booking_sessions (
			id, conversation_id, org_id, contact_id, state, outcome,
			message_count, offer, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (conversation_id) DO NOTHING
	`, sess.ID, sess.ConversationID, sess.OrgID, sess.ContactID,
		string(sess.State), string(sess.Outcome), 0, offerJSON, now, now)
	if err != nil {
		return nil, fmt.Errorf("session: failed to create: %w", err)
	}

	// A concurrent creator may have won the insert; re-read either way so the
	// caller always sees the durable row.
	return s.Get(ctx, ref.ConversationID)
}

// Get returns the session for a conversation or ErrNotFound.
func (s *PGStore) Get(ctx context.Context, conversationID string) (*Session, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM booking_sessions WHERE conversation_id = $1`,
		conversationID)
	return scanSession(row)
}

// Update persists the full mutable state of the session.
func (s *PGStore) Update(ctx context.Context, sess *Session) error {
	if sess == nil {
		return errors.New("session: session cannot be nil")
	}

	var slotsJSON []byte
	if len(sess.OfferedSlots) > 0 {
		var err error
		slotsJSON, err = marshalJSON(sess.OfferedSlots)
		if err != nil {
			return err
		}
	}

	sess.UpdatedAt = time.Now().UTC()
	result, err := s.pool.Exec(ctx, `
		UPDATE booking_sessions SET
			state = $2,
			outcome = $3,
			message_count = $4,
			last_inbound_id = $5,
			name = $6,
			address = $7,
			email = $8,
			preferred_time = $9,
			customer_id = $10,
			location_id = $11,
			job_id = $12,
			appointment_id = $13,
			handoff_id = $14,
			pending_customer_id = $15,
			pending_location_id = $16,
			pending_name = $17,
			offered_slots = $18,
			selected_slot_index = $19,
			last_intent = $20,
			updated_at = $21
		WHERE conversation_id = $1
	`, sess.ConversationID, string(sess.State), string(sess.Outcome),
		sess.MessageCount, sess.LastInboundID,
		sess.Name, sess.Address, sess.Email, sess.PreferredTime,
		sess.CustomerID, sess.LocationID, sess.JobID, sess.AppointmentID, sess.HandoffID,
		sess.PendingMatchCustomerID, sess.PendingMatchLocationID, sess.PendingMatchName,
		slotsJSON, sess.SelectedSlotIndex, sess.LastIntent, sess.UpdatedAt)
	if err != nil {
		return fmt.Errorf("session: failed to update: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Reset returns the session to its initial state. Extracted fields, CRM
// linkage, and negotiation state are cleared; the transcript history is kept.
func (s *PGStore) Reset(ctx context.Context, conversationID string) error {
	result, err := s.pool.Exec(ctx, `
		UPDATE booking_sessions SET
			state = $2,
			outcome = $3,
			message_count = 0,
			last_inbound_id = '',
			name = '', address = '', email = '', preferred_time = '',
			customer_id = '', location_id = '', job_id = '', appointment_id = '', handoff_id = '',
			pending_customer_id = '', pending_location_id = '', pending_name = '',
			offered_slots = NULL, selected_slot_index = 0, last_intent = '',
			updated_at = $4
		WHERE conversation_id = $1
	`, conversationID, string(StateInboundReceived), string(OutcomePending), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("session: failed to reset: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSession(row pgx.Row) (*Session, error) {
	var (
		sess      Session
		state     string
		outcome   string
		slotsJSON []byte
		offerJSON []byte
		lastInbnd pgtype.Text
		name      pgtype.Text
		address   pgtype.Text
		email     pgtype.Text
		prefTime  pgtype.Text
		custID    pgtype.Text
		locID     pgtype.Text
		jobID     pgtype.Text
		apptID    pgtype.Text
		handoffID pgtype.Text
		pendCust  pgtype.Text
		pendLoc   pgtype.Text
		pendName  pgtype.Text
		intent    pgtype.Text
	)

	err := row.Scan(
		&sess.ID, &sess.ConversationID, &sess.OrgID, &sess.ContactID, &state, &outcome,
		&sess.MessageCount, &lastInbnd,
		&name, &address, &email, &prefTime,
		&custID, &locID, &jobID, &apptID, &handoffID,
		&pendCust, &pendLoc, &pendName,
		&slotsJSON, &sess.SelectedSlotIndex, &intent, &offerJSON,
		&sess.CreatedAt, &sess.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: failed to fetch: %w", err)
	}

	sess.State = State(state)
	sess.Outcome = Outcome(outcome)
	sess.LastInboundID = lastInbnd.String
	sess.Name = name.String
	sess.Address = address.String
	sess.Email = email.String
	sess.PreferredTime = prefTime.String
	sess.CustomerID = custID.String
	sess.LocationID = locID.String
	sess.JobID = jobID.String
	sess.AppointmentID = apptID.String
	sess.HandoffID = handoffID.String
	sess.PendingMatchCustomerID = pendCust.String
	sess.PendingMatchLocationID = pendLoc.String
	sess.PendingMatchName = pendName.String
	sess.LastIntent = intent.String

	if len(slotsJSON) > 0 {
		if err := json.Unmarshal(slotsJSON, &sess.OfferedSlots); err != nil {
			return nil, fmt.Errorf("session: failed to decode offered slots: %w", err)
		}
	}
	if len(offerJSON) > 0 {
		var offer OfferContext
		if err := json.Unmarshal(offerJSON, &offer); err != nil {
			return nil, fmt.Errorf("session: failed to decode offer: %w", err)
		}
		sess.Offer = &offer
	}

	return &sess, nil
}

func marshalJSON(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("session: failed to encode json: %w", err)
	}
	return data, nil
}
