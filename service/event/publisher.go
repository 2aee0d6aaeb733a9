package event

import (
	"context"
	"log"
	"time"

	"github.com/viant/warden/service/messaging"
)

// Publisher publishes lifecycle events to the underlying queue.
type Publisher struct {
	queue messaging.Queue[Event]
}

// NewPublisher creates a publisher over the supplied queue.
func NewPublisher(queue messaging.Queue[Event]) *Publisher {
	return &Publisher{queue: queue}
}

// Publish places the event on the queue.
func (p *Publisher) Publish(ctx context.Context, event *Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return p.queue.Publish(ctx, event)
}

// TryPublish publishes and swallows any failure; emission is best-effort
// observability, never a correctness mechanism.
func (p *Publisher) TryPublish(ctx context.Context, event *Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		log.Printf("failed to publish %v event: %v", event.Topic, err)
	}
}

// Consume retrieves and acknowledges a single event.
func (p *Publisher) Consume(ctx context.Context) (*Event, error) {
	msg, err := p.queue.Consume(ctx)
	if err != nil || msg == nil {
		return nil, err
	}
	if err = msg.Ack(); err != nil {
		return nil, err
	}
	return msg.T(), nil
}
