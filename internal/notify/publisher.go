package notify

import (
	"context"
	"fmt"

	"github.com/davidbarber/barbershop-platform/internal/events"
	"github.com/davidbarber/barbershop-platform/pkg/logging"
)

// QueuePublisher forwards drained outbox entries onto the notification queue.
// It is the events.DeliveryHandler wired into the outbox deliverer so that
// email sending happens in the worker process, not the request path.
type QueuePublisher struct {
	queue  queueClient
	logger *logging.Logger
}

// NewQueuePublisher creates a publisher that pushes outbox entries to queue.
func NewQueuePublisher(queue queueClient, logger *logging.Logger) *QueuePublisher {
	if queue == nil {
		panic("notify: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &QueuePublisher{queue: queue, logger: logger}
}

// Handle implements events.DeliveryHandler.
func (p *QueuePublisher) Handle(ctx context.Context, entry events.OutboxEntry) error {
	payload, body, err := encodePayload(queuePayload{
		ID:      entry.ID.String(),
		Type:    entry.Type,
		Payload: entry.Payload,
	})
	if err != nil {
		return err
	}

	if err := p.queue.Send(ctx, body); err != nil {
		return fmt.Errorf("notify: failed to publish %s: %w", entry.Type, err)
	}

	p.logger.Debug("notify: event published", "event_id", payload.ID, "type", payload.Type)
	return nil
}
