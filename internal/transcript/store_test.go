package transcript

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const convID = "sms:org-1:+15550001111"

func TestEnsureConversationCreatesNew(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id FROM booking_conversations").
		WithArgs(convID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO booking_conversations").
		WillReturnResult(sqlmock.NewResult(1, 1))

	store := NewStore(db)
	id, err := store.EnsureConversation(context.Background(), convID)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureConversationReturnsExisting(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	existing := uuid.New()
	mock.ExpectQuery("SELECT id FROM booking_conversations").
		WithArgs(convID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(existing.String()))
	mock.ExpectExec("UPDATE booking_conversations SET updated_at").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewStore(db)
	id, err := store.EnsureConversation(context.Background(), convID)
	require.NoError(t, err)
	assert.Equal(t, existing, id)
}

func TestEnsureConversationRejectsBadID(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	_, err = store.EnsureConversation(context.Background(), "not-a-conversation-id")
	assert.ErrorContains(t, err, "invalid conversation_id")
}

func TestAppendMessageBumpsCustomerCounter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	existing := uuid.New()
	mock.ExpectQuery("SELECT id FROM booking_conversations").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(existing.String()))
	mock.ExpectExec("UPDATE booking_conversations SET updated_at").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO booking_messages").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("customer_message_count = customer_message_count").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewStore(db)
	err = store.AppendMessage(context.Background(), convID, Message{
		Role: RoleCustomer,
		Body: "yes, book it",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendMessageSkipsCountersOnDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	existing := uuid.New()
	mock.ExpectQuery("SELECT id FROM booking_conversations").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(existing.String()))
	mock.ExpectExec("UPDATE booking_conversations SET updated_at").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// ON CONFLICT DO NOTHING reports zero rows for a redelivered message.
	mock.ExpectExec("INSERT INTO booking_messages").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewStore(db)
	err = store.AppendMessage(context.Background(), convID, Message{
		ID:   uuid.New(),
		Role: RoleAgent,
		Body: "Got it, you're booked.",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetConversation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	started := time.Now().Add(-time.Hour)
	rows := sqlmock.NewRows([]string{
		"id", "conversation_id", "org_id", "phone", "status", "outcome",
		"message_count", "customer_message_count", "agent_message_count",
		"started_at", "last_message_at", "ended_at",
	}).AddRow(uuid.New().String(), convID, "org-1", "+15550001111", "active", "pending",
		4, 2, 2, started, time.Now(), nil)

	mock.ExpectQuery("SELECT (.+) FROM booking_conversations").
		WithArgs(convID).
		WillReturnRows(rows)

	store := NewStore(db)
	conv, err := store.GetConversation(context.Background(), convID)
	require.NoError(t, err)
	require.NotNil(t, conv)
	assert.Equal(t, "org-1", conv.OrgID)
	assert.Equal(t, 2, conv.CustomerMessageCount)
	assert.NotNil(t, conv.LastMessageAt)
	assert.Nil(t, conv.EndedAt)
}

func TestGetConversationNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM booking_conversations").
		WillReturnError(sql.ErrNoRows)

	store := NewStore(db)
	conv, err := store.GetConversation(context.Background(), convID)
	require.NoError(t, err)
	assert.Nil(t, conv)
}

func TestGetMessages(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"id", "conversation_id", "role", "body", "from_phone", "to_phone",
		"provider_message_id", "created_at",
	}).
		AddRow(uuid.New().String(), convID, RoleCustomer, "interested", "+15550001111", "+15559990000", "SM1", time.Now().Add(-2*time.Minute)).
		AddRow(uuid.New().String(), convID, RoleAgent, "Great, what's your address?", "+15559990000", "+15550001111", "", time.Now())

	mock.ExpectQuery("SELECT (.+) FROM booking_messages").
		WithArgs(convID).
		WillReturnRows(rows)

	store := NewStore(db)
	msgs, err := store.GetMessages(context.Background(), convID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleCustomer, msgs[0].Role)
	assert.Equal(t, "Great, what's your address?", msgs[1].Body)
}

func TestMarkOutcome(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE booking_conversations SET outcome").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewStore(db)
	assert.NoError(t, store.MarkOutcome(context.Background(), convID, "full_booking"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNilStoreIsSafe(t *testing.T) {
	var store *Store

	_, err := store.EnsureConversation(context.Background(), convID)
	assert.NoError(t, err)
	assert.NoError(t, store.AppendMessage(context.Background(), convID, Message{Role: RoleCustomer}))
	conv, err := store.GetConversation(context.Background(), convID)
	assert.NoError(t, err)
	assert.Nil(t, conv)
}
