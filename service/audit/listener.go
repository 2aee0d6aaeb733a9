// Package audit bridges lifecycle events into the append-only audit trail.
package audit

import (
	"context"

	"github.com/viant/warden/model/task"
	"github.com/viant/warden/service/event"
	"github.com/viant/warden/service/store"
)

// Sink returns an event handler that appends every lifecycle event to the
// audit trail. Append is best-effort so a failing store never blocks the
// event drain.
func Sink(storeService store.Service) func(*event.Event) {
	return func(anEvent *event.Event) {
		if anEvent == nil {
			return
		}
		storeService.AppendAudit(context.Background(), &task.AuditEvent{
			TenantID:    anEvent.TenantID,
			TaskID:      anEvent.TaskID,
			TraceID:     anEvent.TraceID,
			EventTopic:  anEvent.Topic,
			EventSource: anEvent.Source,
			Payload:     anEvent.Payload,
			Timestamp:   anEvent.CreatedAt,
		})
	}
}
