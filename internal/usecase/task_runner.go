package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/cricket-live/internal/domain/jobscheduler"
	"github.com/riskibarqy/cricket-live/internal/domain/match"
	"github.com/riskibarqy/cricket-live/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

// TaskRunner resolves task keys into ingestion work and records successful
// runs. Failures are reported by the dispatcher sink.
type TaskRunner struct {
	ingestion *IngestionService
	events    jobscheduler.Repository
	logger    *logging.Logger
	now       func() time.Time
}

func NewTaskRunner(ingestion *IngestionService, events jobscheduler.Repository, logger *logging.Logger) *TaskRunner {
	if logger == nil {
		logger = logging.Default()
	}
	return &TaskRunner{
		ingestion: ingestion,
		events:    events,
		logger:    logger,
		now:       time.Now,
	}
}

func (r *TaskRunner) Resolve(key jobscheduler.TaskKey) (TaskWork, error) {
	var work TaskWork
	switch key.Kind {
	case jobscheduler.TaskFixtures:
		work = func(ctx context.Context) error {
			result, err := r.ingestion.RefreshFixtures(ctx)
			if err == nil {
				r.logger.InfoContext(ctx, "fixtures refreshed",
					"seen", result.Seen,
					"created", result.Created,
					"unparsed_start_time", result.Unparsed,
				)
			}
			return err
		}
	case jobscheduler.TaskDetails:
		if err := match.ValidateID(key.MatchID); err != nil {
			return nil, fmt.Errorf("%w: task %s: %v", ErrInvalidInput, key, err)
		}
		work = func(ctx context.Context) error {
			return r.ingestion.RefreshDetails(ctx, key.MatchID)
		}
	case jobscheduler.TaskLive:
		if err := match.ValidateID(key.MatchID); err != nil {
			return nil, fmt.Errorf("%w: task %s: %v", ErrInvalidInput, key, err)
		}
		work = func(ctx context.Context) error {
			return r.ingestion.RefreshLive(ctx, key.MatchID)
		}
	default:
		return nil, fmt.Errorf("%w: unknown task kind %q", ErrInvalidInput, key.Kind)
	}

	return func(ctx context.Context) error {
		ctx, span := startUsecaseSpan(ctx, "usecase.TaskRunner."+string(key.Kind),
			attribute.String("match_id", key.MatchID),
			attribute.String("task_kind", string(key.Kind)),
		)
		defer span.End()

		if err := work(ctx); err != nil {
			span.RecordError(err)
			return err
		}
		r.recordCompleted(ctx, key)
		return nil
	}, nil
}

func (r *TaskRunner) recordCompleted(ctx context.Context, key jobscheduler.TaskKey) {
	if r.events == nil {
		return
	}
	traceID, spanID := traceMetaFromContext(ctx)
	event := jobscheduler.TaskEvent{
		TaskKey:    key,
		Status:     jobscheduler.StatusCompleted,
		OccurredAt: r.now().UTC(),
		TraceID:    traceID,
		SpanID:     spanID,
	}
	if err := r.events.RecordEvent(ctx, event); err != nil {
		r.logger.WarnContext(ctx, "record task event failed",
			"task_key", key.String(),
			"status", event.Status,
			"error", err,
		)
	}
}
