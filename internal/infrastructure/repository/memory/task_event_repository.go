package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/cricket-live/internal/domain/jobscheduler"
)

// TaskEventRepository keeps task sink records in memory, newest last.
type TaskEventRepository struct {
	mu     sync.RWMutex
	events []jobscheduler.TaskEvent
}

func NewTaskEventRepository() *TaskEventRepository {
	return &TaskEventRepository{}
}

func (r *TaskEventRepository) RecordEvent(_ context.Context, event jobscheduler.TaskEvent) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return nil
}

func (r *TaskEventRepository) Events() []jobscheduler.TaskEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]jobscheduler.TaskEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns the number of events with the given key and status.
func (r *TaskEventRepository) Count(key jobscheduler.TaskKey, status jobscheduler.EventStatus) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, event := range r.events {
		if event.TaskKey == key && event.Status == status {
			n++
		}
	}
	return n
}
