package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/davidbarber/barbershop-platform/internal/events"
	"github.com/davidbarber/barbershop-platform/pkg/logging"
)

const (
	defaultWorkerCount   = 2
	defaultWaitSeconds   = 2
	defaultBatchSize     = 5
	maxWaitSeconds       = 20
	maxReceiveBatchSize  = 10
	deleteTimeoutSeconds = 5
)

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

// WithReceiveWait sets the long-poll wait in seconds.
func WithReceiveWait(seconds int) WorkerOption {
	return func(cfg *workerConfig) {
		if seconds > 0 && seconds <= maxWaitSeconds {
			cfg.receiveWaitSecs = seconds
		}
	}
}

// WithReceiveBatchSize sets how many messages each receive call asks for.
func WithReceiveBatchSize(size int) WorkerOption {
	return func(cfg *workerConfig) {
		if size > 0 && size <= maxReceiveBatchSize {
			cfg.receiveBatchSize = size
		}
	}
}

// Worker consumes booking events from the queue and invokes the notifier.
type Worker struct {
	notifier *Service
	queue    queueClient
	logger   *logging.Logger

	cfg workerConfig
	wg  sync.WaitGroup
}

// NewWorker creates a queue consumer that dispatches events to notifier.
func NewWorker(notifier *Service, queue queueClient, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if notifier == nil {
		panic("notify: notifier cannot be nil")
	}
	if queue == nil {
		panic("notify: queue cannot be nil")
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
		notifier: notifier,
		queue:    queue,
		logger:   logger,
		cfg:      cfg,
	}
}

// Start launches the consumer goroutines. They exit when ctx is canceled.
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
	w.logger.Debug("notify worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("notify worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.cfg.receiveBatchSize, w.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to receive notification jobs", "error", err, "worker_id", workerID)
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

func (w *Worker) handleMessage(ctx context.Context, msg queueMessage) {
	var payload queuePayload
	if err := json.Unmarshal([]byte(msg.Body), &payload); err != nil {
		w.logger.Error("failed to decode notification job", "error", err, "msg_id", msg.ID)
		w.deleteMessage(context.Background(), msg.ReceiptHandle)
		return
	}

	switch payload.Type {
	case events.TypeAppointmentScheduled:
		var evt events.AppointmentScheduledV1
		if err := json.Unmarshal(payload.Payload, &evt); err != nil {
			w.logger.Error("failed to decode scheduled event", "error", err, "event_id", payload.ID)
			w.deleteMessage(context.Background(), msg.ReceiptHandle)
			return
		}
		if err := w.notifier.NotifyAppointmentScheduled(ctx, evt); err != nil {
			// Leave the message on the queue so delivery is retried after
			// the visibility timeout.
			w.logger.Error("scheduled notification failed", "error", err, "event_id", payload.ID)
			return
		}
	case events.TypeAppointmentCancelled:
		var evt events.AppointmentCancelledV1
		if err := json.Unmarshal(payload.Payload, &evt); err != nil {
			w.logger.Error("failed to decode cancelled event", "error", err, "event_id", payload.ID)
			w.deleteMessage(context.Background(), msg.ReceiptHandle)
			return
		}
		if err := w.notifier.NotifyAppointmentCancelled(ctx, evt); err != nil {
			w.logger.Error("cancellation notification failed", "error", err, "event_id", payload.ID)
			return
		}
	default:
		w.logger.Warn("unknown notification job type", "type", payload.Type, "event_id", payload.ID)
	}

	w.deleteMessage(context.Background(), msg.ReceiptHandle)
}

func (w *Worker) deleteMessage(ctx context.Context, receiptHandle string) {
	if receiptHandle == "" {
		return
	}

	deleteCtx, cancel := context.WithTimeout(ctx, deleteTimeoutSeconds*time.Second)
	defer cancel()

	if err := w.queue.Delete(deleteCtx, receiptHandle); err != nil {
		w.logger.Error("failed to delete notification job", "error", err)
	}
}
