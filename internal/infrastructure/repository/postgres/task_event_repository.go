package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/cricket-live/internal/domain/jobscheduler"
	qb "github.com/riskibarqy/cricket-live/internal/platform/querybuilder"
)

const maxErrorMessageLen = 2000

// TaskEventRepository appends task sink records to task_events.
type TaskEventRepository struct {
	db *sqlx.DB
}

func NewTaskEventRepository(db *sqlx.DB) *TaskEventRepository {
	return &TaskEventRepository{db: db}
}

func (r *TaskEventRepository) RecordEvent(ctx context.Context, event jobscheduler.TaskEvent) error {
	kind := strings.TrimSpace(string(event.TaskKey.Kind))
	if kind == "" {
		return fmt.Errorf("task kind is required")
	}
	matchID := strings.TrimSpace(event.TaskKey.MatchID)
	if matchID == "" {
		matchID = jobscheduler.FixturesKey
	}

	occurredAt := event.OccurredAt.UTC()
	if event.OccurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	message := event.ErrorMessage
	if len(message) > maxErrorMessageLen {
		message = message[:maxErrorMessageLen]
	}

	query, args, err := qb.InsertModel("task_events", taskEventInsertModel{
		MatchID:      matchID,
		TaskKind:     kind,
		Status:       string(event.Status),
		Attempts:     event.Attempts,
		ErrorMessage: optionalString(message),
		TraceID:      optionalString(event.TraceID),
		SpanID:       optionalString(event.SpanID),
		OccurredAt:   occurredAt,
	}, "")
	if err != nil {
		return fmt.Errorf("build insert task event query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert task event task_key=%s status=%s: %w", event.TaskKey, event.Status, err)
	}
	return nil
}
