// Package dispatch moves inbound SMS from the webhook to the booking agent
// through a queue, preserving per-conversation ordering. The state machine
// has a single logical writer per conversation: SQS FIFO message groups give
// that ordering in production, and the worker adds a per-conversation lock so
// the in-memory queue behaves the same way in development.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/boostxlresults/intellisend/internal/agent"
)

// Queue is the transport between webhook and worker. GroupID carries the
// conversation id so FIFO backends serialize per conversation.
type Queue interface {
	Send(ctx context.Context, groupID, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]Message, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// Message is one received queue entry.
type Message struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// InboundJob is the queue payload for one customer message.
type InboundJob struct {
	ID      string        `json:"id"`
	Inbound agent.Inbound `json:"inbound"`
}

// Publisher enqueues inbound messages for the worker pool.
type Publisher struct {
	queue Queue
}

// NewPublisher wraps a queue. It panics if queue is nil.
func NewPublisher(queue Queue) *Publisher {
	if queue == nil {
		panic("dispatch: queue is required")
	}
	return &Publisher{queue: queue}
}

// PublishInbound enqueues one inbound message, keyed by conversation so the
// FIFO backend keeps same-conversation messages in arrival order.
func (p *Publisher) PublishInbound(ctx context.Context, in agent.Inbound) error {
	job := InboundJob{ID: uuid.NewString(), Inbound: in}
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("dispatch: encode inbound job: %w", err)
	}
	if err := p.queue.Send(ctx, in.ConversationID, string(body)); err != nil {
		return fmt.Errorf("dispatch: enqueue inbound job: %w", err)
	}
	return nil
}
