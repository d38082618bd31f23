package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func sessionRow(id uuid.UUID, convID string) *pgxmock.Rows {
	now := time.Now().UTC()
	return pgxmock.NewRows([]string{
		"id", "conversation_id", "org_id", "contact_id", "state", "outcome",
		"message_count", "last_inbound_id",
		"name", "address", "email", "preferred_time",
		"customer_id", "location_id", "job_id", "appointment_id", "handoff_id",
		"pending_customer_id", "pending_location_id", "pending_name",
		"offered_slots", "selected_slot_index", "last_intent", "offer",
		"created_at", "updated_at",
	}).AddRow(
		id, convID, "org-1", "contact-1", string(StateQualifying), string(OutcomePending),
		2, "msg-9",
		"Pat Doe", "123 Main St, Tempe, AZ 85281", "", "",
		"", "", "", "", "",
		"", "", "",
		[]byte(nil), 0, "book_yes", []byte(`{"type":"tune-up","name":"Spring Tune-Up"}`),
		now, now,
	)
}

func TestPGStoreGet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newPGStoreWithQuerier(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT(.|\n)+FROM booking_sessions").
		WithArgs("conv-1").
		WillReturnRows(sessionRow(id, "conv-1"))

	sess, err := store.Get(context.Background(), "conv-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.ID != id || sess.State != StateQualifying || sess.MessageCount != 2 {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if sess.Offer == nil || sess.Offer.Name != "Spring Tune-Up" {
		t.Fatalf("offer not decoded: %+v", sess.Offer)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreGetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newPGStoreWithQuerier(mock)

	mock.ExpectQuery("SELECT(.|\n)+FROM booking_sessions").
		WithArgs("conv-miss").
		WillReturnError(pgx.ErrNoRows)

	if _, err := store.Get(context.Background(), "conv-miss"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGStoreLoadOrCreateMissingContact(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newPGStoreWithQuerier(mock)

	mock.ExpectQuery("SELECT(.|\n)+FROM booking_sessions").
		WithArgs("conv-new").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT 1 FROM contacts").
		WithArgs("contact-gone", "org-1").
		WillReturnError(pgx.ErrNoRows)

	_, err = store.LoadOrCreate(context.Background(), Ref{
		ConversationID: "conv-new",
		OrgID:          "org-1",
		ContactID:      "contact-gone",
	}, nil)
	if !errors.Is(err, ErrBackingDataMissing) {
		t.Fatalf("expected ErrBackingDataMissing, got %v", err)
	}
}

func TestPGStoreLoadOrCreateInsertsAndRereads(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newPGStoreWithQuerier(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT(.|\n)+FROM booking_sessions").
		WithArgs("conv-new").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT 1 FROM contacts").
		WithArgs("contact-1", "org-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(1))
	mock.ExpectExec("INSERT INTO booking_sessions").
		WithArgs(pgxmock.AnyArg(), "conv-new", "org-1", "contact-1",
			string(StateInboundReceived), string(OutcomePending), 0,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("SELECT(.|\n)+FROM booking_sessions").
		WithArgs("conv-new").
		WillReturnRows(sessionRow(id, "conv-new"))

	sess, err := store.LoadOrCreate(context.Background(), Ref{
		ConversationID: "conv-new",
		OrgID:          "org-1",
		ContactID:      "contact-1",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.ConversationID != "conv-new" {
		t.Fatalf("unexpected session: %+v", sess)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreUpdateNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newPGStoreWithQuerier(mock)

	mock.ExpectExec("UPDATE booking_sessions").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = store.Update(context.Background(), &Session{ConversationID: "conv-miss"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGStoreReset(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newPGStoreWithQuerier(mock)

	mock.ExpectExec("UPDATE booking_sessions").
		WithArgs("conv-1", string(StateInboundReceived), string(OutcomePending), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := store.Reset(context.Background(), "conv-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
