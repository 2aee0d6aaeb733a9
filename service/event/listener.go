package event

import (
	"context"
	"errors"
)

// Listener drains the event queue on a background goroutine and applies a
// handler to every event.
type Listener struct {
	publisher *Publisher
	handler   func(*Event)
	cancel    context.CancelFunc
}

// NewListener creates a listener over the supplied publisher.
func NewListener(publisher *Publisher, handler func(*Event)) *Listener {
	return &Listener{publisher: publisher, handler: handler}
}

// Start begins consuming until Stop is called.
func (l *Listener) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	go func() {
		for {
			event, err := l.publisher.Consume(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				continue
			}
			if event != nil {
				l.handler(event)
			}
		}
	}()
}

// Stop terminates the background consumer.
func (l *Listener) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
}
