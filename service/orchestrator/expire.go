package orchestrator

import (
	"context"
	"time"

	"github.com/viant/warden/internal/clock"
	"github.com/viant/warden/model/task"
	"github.com/viant/warden/service/store"
)

// AutoExpire starts a goroutine that periodically expires pending tickets
// older than ttl; the owning task is rejected so it does not wait forever.
// It returns stop() - call it (or cancel ctx) to exit. The sweep relies on
// the store's conditional decision update, so a ticket decided concurrently
// by a human simply wins the race.
func (s *Service) AutoExpire(ctx context.Context, ttl, interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = time.Minute
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				s.expirePending(ctx, ttl)
			}
		}
	}()
	return func() { close(done) }
}

func (s *Service) expirePending(ctx context.Context, ttl time.Duration) {
	tickets, err := s.store.ListApprovalTickets(ctx, &store.Filter{
		Status: string(task.TicketPending),
		Limit:  store.MaxLimit,
	})
	if err != nil {
		return
	}
	cutoff := clock.Now().Add(-ttl)
	for _, ticket := range tickets {
		if ticket.CreatedAt.After(cutoff) {
			continue
		}
		changed, err := s.store.DecideApprovalTicket(ctx, ticket.ID, task.TicketExpired, "system", "approval expired")
		if err != nil || !changed {
			continue
		}
		s.setStatus(ctx, ticket.TaskID, task.StatusRejected, store.WithError("approval expired"))
	}
}
