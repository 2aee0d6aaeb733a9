package event

import (
	"context"

	"github.com/viant/warden/service/messaging"
	"github.com/viant/warden/service/messaging/memory"
)

// Service owns the lifecycle-event queue, its publisher and the optional
// listener sink.
type Service struct {
	queue     messaging.Queue[Event]
	publisher *Publisher
	listener  *Listener
}

// Option customises the event service.
type Option func(*Service)

// WithQueue overrides the default in-memory queue.
func WithQueue(queue messaging.Queue[Event]) Option {
	return func(s *Service) { s.queue = queue }
}

// New creates an event service backed by an in-memory queue unless overridden.
func New(options ...Option) *Service {
	ret := &Service{}
	for _, option := range options {
		option(ret)
	}
	if ret.queue == nil {
		ret.queue = memory.NewQueue[Event](memory.DefaultConfig())
	}
	ret.publisher = NewPublisher(ret.queue)
	return ret
}

// Publisher returns the service publisher.
func (s *Service) Publisher() *Publisher {
	return s.publisher
}

// Publish emits an event, best-effort.
func (s *Service) Publish(ctx context.Context, event *Event) {
	s.publisher.TryPublish(ctx, event)
}

// SetListener replaces the active sink; the previous listener is stopped.
func (s *Service) SetListener(handler func(*Event)) {
	if s.listener != nil {
		s.listener.Stop()
	}
	s.listener = NewListener(s.publisher, handler)
	s.listener.Start()
}

// Close stops the active listener, if any.
func (s *Service) Close() {
	if s.listener != nil {
		s.listener.Stop()
	}
}
