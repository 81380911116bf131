package usecase

import (
	"context"
	"errors"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/cricket-live/internal/domain/jobscheduler"
	"github.com/riskibarqy/cricket-live/internal/platform/dispatch"
	"github.com/riskibarqy/cricket-live/internal/platform/logging"
)

const recordEventTimeout = 5 * time.Second

// TaskReporter is the dispatcher error sink. Every task failure becomes
// one log record and one task event.
type TaskReporter struct {
	events jobscheduler.Repository
	logger *logging.Logger
	now    func() time.Time
}

func NewTaskReporter(events jobscheduler.Repository, logger *logging.Logger) *TaskReporter {
	if logger == nil {
		logger = logging.Default()
	}
	return &TaskReporter{
		events: events,
		logger: logger.Named("tasks"),
		now:    time.Now,
	}
}

// Report satisfies dispatch.Sink.
func (r *TaskReporter) Report(key jobscheduler.TaskKey, err error) {
	if err == nil {
		return
	}

	status := jobscheduler.StatusFailed
	if crerr.Is(err, dispatch.ErrShutdown) || crerr.Is(err, dispatch.ErrOverloaded) {
		status = jobscheduler.StatusDropped
	}
	attempts := 0
	var fetchErr *FetchFailure
	if errors.As(err, &fetchErr) {
		attempts = fetchErr.Attempts
	}

	args := []any{
		"match_id", key.MatchID,
		"task_kind", key.Kind,
		"status", status,
		"transient", IsTransient(err),
		"attempts", attempts,
		"error", err,
	}
	if status == jobscheduler.StatusDropped {
		r.logger.Warn("task dropped", args...)
	} else {
		r.logger.Error("task failed", args...)
	}

	if r.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordEventTimeout)
	defer cancel()
	event := jobscheduler.TaskEvent{
		TaskKey:      key,
		Status:       status,
		Attempts:     attempts,
		ErrorMessage: err.Error(),
		OccurredAt:   r.now().UTC(),
	}
	if recErr := r.events.RecordEvent(ctx, event); recErr != nil {
		r.logger.Warn("record task event failed", "task_key", key.String(), "error", recErr)
	}
}
