// Package history caches the recent turns of a conversation in Redis so the
// intent classifier and response generator can see context without a
// transcript query on every inbound message.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	historyTTL = 72 * time.Hour
	// maxTurns bounds the window handed to the classifier and generator.
	maxTurns = 20
)

const (
	RoleCustomer  = "customer"
	RoleAssistant = "assistant"
)

// Turn is one message in the recent-history window.
type Turn struct {
	Role string `json:"role"`
	Body string `json:"body"`
}

// Store reads and appends the recent-turn window for a conversation.
type Store struct {
	redis  *redis.Client
	tracer trace.Tracer
}

func NewStore(client *redis.Client, tracer trace.Tracer) *Store {
	if client == nil {
		panic("history: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("intellisend.internal.history")
	}
	return &Store{
		redis:  client,
		tracer: tracer,
	}
}

// Load returns the cached window for a conversation, oldest first. A missing
// key is an empty history, not an error.
func (s *Store) Load(ctx context.Context, conversationID string) ([]Turn, error) {
	ctx, span := s.tracer.Start(ctx, "history.load")
	defer span.End()

	data, err := s.redis.Get(ctx, historyKey(conversationID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("history: failed to load: %w", err)
	}

	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("history: failed to decode: %w", err)
	}
	return turns, nil
}

// Append adds turns to the window, trimming to the newest maxTurns.
func (s *Store) Append(ctx context.Context, conversationID string, turns ...Turn) error {
	ctx, span := s.tracer.Start(ctx, "history.append")
	defer span.End()

	existing, err := s.Load(ctx, conversationID)
	if err != nil {
		return err
	}
	existing = append(existing, turns...)
	if len(existing) > maxTurns {
		existing = existing[len(existing)-maxTurns:]
	}

	data, err := json.Marshal(existing)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("history: failed to marshal: %w", err)
	}
	if err := s.redis.Set(ctx, historyKey(conversationID), data, historyTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("history: failed to persist: %w", err)
	}
	return nil
}

// Clear drops the cached window for a conversation.
func (s *Store) Clear(ctx context.Context, conversationID string) error {
	ctx, span := s.tracer.Start(ctx, "history.clear")
	defer span.End()

	if err := s.redis.Del(ctx, historyKey(conversationID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("history: failed to clear: %w", err)
	}
	return nil
}

func historyKey(id string) string {
	return fmt.Sprintf("booking_history:%s", id)
}
