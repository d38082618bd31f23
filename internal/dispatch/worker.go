package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/boostxlresults/intellisend/internal/agent"
	"github.com/boostxlresults/intellisend/internal/tenancy"
	"github.com/boostxlresults/intellisend/pkg/logging"
)

const (
	defaultWorkerCount   = 2
	defaultWaitSeconds   = 2
	defaultBatchSize     = 5
	maxWaitSeconds       = 20
	maxReceiveBatchSize  = 10
	deleteTimeoutSeconds = 5
)

// Processor runs one booking step for one inbound message. Implemented by
// agent.Orchestrator.
type Processor interface {
	HandleInboundMessage(ctx context.Context, in agent.Inbound) (*agent.Directive, error)
}

// ReplySender delivers the agent's outbound text to the SMS provider.
type ReplySender interface {
	SendReply(ctx context.Context, orgID, conversationID, toPhone, body string) error
}

// Worker consumes inbound jobs from the queue and invokes the booking agent.
type Worker struct {
	processor Processor
	queue     Queue
	sender    ReplySender
	logger    *logging.Logger

	cfg workerConfig
	wg  sync.WaitGroup

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type workerConfig struct {
	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
}

// WorkerOption customizes worker behavior.
type WorkerOption func(*workerConfig)

// WithWorkerCount sets the number of concurrent consumer goroutines.
func WithWorkerCount(count int) WorkerOption {
	return func(cfg *workerConfig) {
		if count > 0 {
			cfg.workers = count
		}
	}
}

// WithReceiveWaitSeconds sets the long-poll wait duration.
func WithReceiveWaitSeconds(seconds int) WorkerOption {
	return func(cfg *workerConfig) {
		if seconds < 0 {
			return
		}
		if seconds > maxWaitSeconds {
			seconds = maxWaitSeconds
		}
		cfg.receiveWaitSecs = seconds
	}
}

// WithReceiveBatchSize sets how many messages to fetch per poll.
func WithReceiveBatchSize(size int) WorkerOption {
	return func(cfg *workerConfig) {
		if size <= 0 {
			return
		}
		if size > maxReceiveBatchSize {
			size = maxReceiveBatchSize
		}
		cfg.receiveBatchSize = size
	}
}

// NewWorker constructs a queue consumer around the booking agent.
func NewWorker(processor Processor, queue Queue, sender ReplySender, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if processor == nil {
		panic("dispatch: processor cannot be nil")
	}
	if queue == nil {
		panic("dispatch: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	cfg := workerConfig{
		workers:          defaultWorkerCount,
		receiveWaitSecs:  defaultWaitSeconds,
		receiveBatchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Worker{
		processor: processor,
		queue:     queue,
		sender:    sender,
		logger:    logger,
		cfg:       cfg,
		locks:     make(map[string]*sync.Mutex),
	}
}

// Start launches worker goroutines until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all worker goroutines exit.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("dispatch worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("dispatch worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.cfg.receiveBatchSize, w.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to receive inbound jobs", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg Message) {
	var job InboundJob
	if err := json.Unmarshal([]byte(msg.Body), &job); err != nil {
		// Poison message; retrying will never help.
		w.logger.Error("failed to decode inbound job", "error", err, "msg_id", msg.ID)
		w.deleteMessage(context.Background(), msg.ReceiptHandle)
		return
	}

	// One writer per conversation even when the backend is not FIFO.
	unlock := w.lockConversation(job.Inbound.ConversationID)
	defer unlock()

	ctx = tenancy.WithOrgID(ctx, job.Inbound.OrgID)

	directive, err := w.processor.HandleInboundMessage(ctx, job.Inbound)
	if err != nil {
		// Leave the message on the queue: the session was not persisted, so
		// redelivery reprocesses the same logical message safely.
		w.logger.Error("inbound job failed, leaving for redelivery",
			"error", err,
			"job_id", job.ID,
			"conversation_id", job.Inbound.ConversationID,
		)
		return
	}

	if directive == nil {
		w.logger.Debug("automation disabled, dropping job",
			"job_id", job.ID,
			"org_id", job.Inbound.OrgID,
		)
		w.deleteMessage(context.Background(), msg.ReceiptHandle)
		return
	}

	if directive.ShouldRespond && w.sender != nil {
		sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := w.sender.SendReply(sendCtx, job.Inbound.OrgID, job.Inbound.ConversationID, job.Inbound.Phone, directive.Text); err != nil {
			w.logger.Error("failed to send reply",
				"error", err,
				"job_id", job.ID,
				"conversation_id", job.Inbound.ConversationID,
			)
		}
	}

	w.deleteMessage(context.Background(), msg.ReceiptHandle)
}

func (w *Worker) lockConversation(conversationID string) func() {
	w.mu.Lock()
	lock, ok := w.locks[conversationID]
	if !ok {
		lock = &sync.Mutex{}
		w.locks[conversationID] = lock
	}
	w.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (w *Worker) deleteMessage(ctx context.Context, receiptHandle string) {
	if receiptHandle == "" {
		return
	}

	deleteCtx, cancel := context.WithTimeout(ctx, deleteTimeoutSeconds*time.Second)
	defer cancel()

	if err := w.queue.Delete(deleteCtx, receiptHandle); err != nil {
		w.logger.Error("failed to delete inbound job", "error", err)
	}
}
