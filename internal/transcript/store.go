// Package transcript persists the full SMS exchange for each booking
// conversation to PostgreSQL. The redis history window is the working set
// for classification; this store is the durable audit log CSRs read during
// a handoff.
package transcript

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message roles stored in booking_messages.
const (
	RoleCustomer = "customer"
	RoleAgent    = "agent"
)

// Message is one SMS turn in a conversation.
type Message struct {
	ID                uuid.UUID
	ConversationID    string
	Role              string
	Body              string
	FromPhone         string
	ToPhone           string
	ProviderMessageID string
	CreatedAt         time.Time
}

// Conversation is the durable record of one booking thread.
type Conversation struct {
	ID                   uuid.UUID
	ConversationID       string
	OrgID                string
	Phone                string
	Status               string
	Outcome              string
	MessageCount         int
	CustomerMessageCount int
	AgentMessageCount    int
	StartedAt            time.Time
	LastMessageAt        *time.Time
	EndedAt              *time.Time
}

// Store persists conversations and messages. A nil Store is safe to call and
// does nothing, so callers can run without a transcript database in tests.
type Store struct {
	db *sql.DB
}

// NewStore creates a transcript store. Returns nil if db is nil.
func NewStore(db *sql.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

// parseConversationID extracts orgID and phone from "sms:{orgID}:{phone}".
func parseConversationID(conversationID string) (orgID, phone string, ok bool) {
	parts := strings.Split(conversationID, ":")
	if len(parts) != 3 || parts[0] != "sms" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// EnsureConversation creates the conversation row if it does not exist and
// returns its UUID.
func (s *Store) EnsureConversation(ctx context.Context, conversationID string) (uuid.UUID, error) {
	if s == nil || s.db == nil {
		return uuid.Nil, nil
	}

	orgID, phone, ok := parseConversationID(conversationID)
	if !ok {
		return uuid.Nil, fmt.Errorf("transcript: invalid conversation_id format: %s", conversationID)
	}

	var existingID uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM booking_conversations WHERE conversation_id = $1`,
		conversationID,
	).Scan(&existingID)

	if err == nil {
		s.db.ExecContext(ctx,
			`UPDATE booking_conversations SET updated_at = $1 WHERE id = $2`,
			time.Now(), existingID,
		)
		return existingID, nil
	}

	if err != sql.ErrNoRows {
		return uuid.Nil, fmt.Errorf("transcript: failed to check existing: %w", err)
	}

	newID := uuid.New()
	now := time.Now()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO booking_conversations (
			id, conversation_id, org_id, phone, status, outcome,
			message_count, customer_message_count, agent_message_count,
			started_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, newID, conversationID, orgID, phone, "active", "pending",
		0, 0, 0, now, now, now,
	)

	if err != nil {
		// Another worker on the same MessageGroupId lost the race.
		if strings.Contains(err.Error(), "duplicate key") {
			return s.EnsureConversation(ctx, conversationID)
		}
		return uuid.Nil, fmt.Errorf("transcript: failed to create: %w", err)
	}

	return newID, nil
}

// AppendMessage persists a message and bumps the conversation counters.
// The insert is keyed on the message UUID, so redelivered queue messages
// do not double-count.
func (s *Store) AppendMessage(ctx context.Context, conversationID string, msg Message) error {
	if s == nil || s.db == nil {
		return nil
	}

	if _, err := s.EnsureConversation(ctx, conversationID); err != nil {
		return err
	}

	msgID := msg.ID
	if msgID == uuid.Nil {
		msgID = uuid.New()
	}
	timestamp := msg.CreatedAt
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO booking_messages (
			id, conversation_id, role, body, from_phone, to_phone, provider_message_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`, msgID, conversationID, msg.Role, msg.Body, msg.FromPhone, msg.ToPhone, msg.ProviderMessageID, timestamp)

	if err != nil {
		return fmt.Errorf("transcript: failed to insert message: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("transcript: failed to read insert result: %w", err)
	}
	if rowsAffected == 0 {
		return nil
	}

	counterColumn := "agent_message_count"
	if msg.Role == RoleCustomer {
		counterColumn = "customer_message_count"
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE booking_conversations SET
			message_count = message_count + 1,
			%s = %s + 1,
			last_message_at = $1,
			updated_at = $1
		WHERE conversation_id = $2
	`, counterColumn, counterColumn), timestamp, conversationID)

	if err != nil {
		return fmt.Errorf("transcript: failed to update counters: %w", err)
	}

	return nil
}

// MarkOutcome records the terminal outcome on the conversation row.
func (s *Store) MarkOutcome(ctx context.Context, conversationID, outcome string) error {
	if s == nil || s.db == nil {
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE booking_conversations SET outcome = $1, updated_at = $2
		WHERE conversation_id = $3
	`, outcome, time.Now(), conversationID)

	return err
}

// EndConversation marks a conversation as ended. Already-ended rows are left
// untouched.
func (s *Store) EndConversation(ctx context.Context, conversationID string) error {
	if s == nil || s.db == nil {
		return nil
	}

	now := time.Now()
	_, err := s.db.ExecContext(ctx, `
		UPDATE booking_conversations SET
			status = 'ended',
			ended_at = $1,
			updated_at = $1
		WHERE conversation_id = $2 AND ended_at IS NULL
	`, now, conversationID)

	return err
}

// GetConversation retrieves a conversation by its ID. Returns nil when the
// conversation does not exist.
func (s *Store) GetConversation(ctx context.Context, conversationID string) (*Conversation, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}

	var conv Conversation
	var lastMessageAt, endedAt sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT id, conversation_id, org_id, phone, status, outcome,
			   message_count, customer_message_count, agent_message_count,
			   started_at, last_message_at, ended_at
		FROM booking_conversations
		WHERE conversation_id = $1
	`, conversationID).Scan(
		&conv.ID, &conv.ConversationID, &conv.OrgID, &conv.Phone,
		&conv.Status, &conv.Outcome, &conv.MessageCount, &conv.CustomerMessageCount,
		&conv.AgentMessageCount, &conv.StartedAt, &lastMessageAt, &endedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("transcript: failed to get: %w", err)
	}

	if lastMessageAt.Valid {
		conv.LastMessageAt = &lastMessageAt.Time
	}
	if endedAt.Valid {
		conv.EndedAt = &endedAt.Time
	}

	return &conv, nil
}

// GetMessages retrieves messages for a conversation in send order.
func (s *Store) GetMessages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}

	query := `
		SELECT id, conversation_id, role, body, from_phone, to_phone,
			   COALESCE(provider_message_id, ''), created_at
		FROM booking_messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`
	args := []any{conversationID}

	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("transcript: failed to get messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		err := rows.Scan(
			&msg.ID, &msg.ConversationID, &msg.Role, &msg.Body,
			&msg.FromPhone, &msg.ToPhone, &msg.ProviderMessageID, &msg.CreatedAt,
		)
		if err != nil {
			continue
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

// HasAgentMessage reports whether the conversation has any agent messages
// stored. Used to decide whether a first-touch reply is still pending.
func (s *Store) HasAgentMessage(ctx context.Context, conversationID string) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	if strings.TrimSpace(conversationID) == "" {
		return false, nil
	}

	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM booking_messages
		WHERE conversation_id = $1 AND role = 'agent'
		LIMIT 1
	`, conversationID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("transcript: check agent messages: %w", err)
	}
	return true, nil
}
