package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/cricket-live/internal/domain/jobscheduler"
	"github.com/riskibarqy/cricket-live/internal/domain/match"
	"github.com/riskibarqy/cricket-live/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

// EvaluationResult summarizes one lifecycle evaluation.
type EvaluationResult struct {
	Due       int `json:"due"`
	Refreshed int `json:"refreshed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// LifecycleMonitor owns the match state machine. Each evaluation queues a
// live refresh for every scheduled match whose start time has passed and for
// every match already live. A due match becomes live once its live page has
// been fetched successfully (see Promote); completion is only ever signalled
// through MarkCompleted.
type LifecycleMonitor struct {
	store  match.Store
	queue  TaskQueue
	logger *logging.Logger
	now    func() time.Time
}

func NewLifecycleMonitor(store match.Store, queue TaskQueue, logger *logging.Logger) *LifecycleMonitor {
	if logger == nil {
		logger = logging.Default()
	}
	return &LifecycleMonitor{
		store:  store,
		queue:  queue,
		logger: logger.Named("lifecycle"),
		now:    time.Now,
	}
}

func (m *LifecycleMonitor) Evaluate(ctx context.Context) (EvaluationResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LifecycleMonitor.Evaluate")
	defer span.End()

	now := m.now().UTC()
	var result EvaluationResult
	var errs []error

	scheduled, err := m.store.ReadByStatus(ctx, match.StatusScheduled)
	if err != nil {
		errs = append(errs, persistenceErr(err, "read scheduled matches"))
	}
	for _, item := range scheduled {
		if item.ScheduledAt == nil {
			result.Skipped++
			m.logger.WarnContext(ctx, "match start time missing or unparseable, leaving scheduled",
				"match_id", item.ID,
				"raw_start_time", item.RawStartTime,
			)
			continue
		}
		if item.ScheduledAt.After(now) {
			continue
		}
		if err := m.enqueueLive(ctx, item.ID); err != nil {
			result.Failed++
			continue
		}
		result.Due++
	}

	live, err := m.store.ReadByStatus(ctx, match.StatusLive)
	if err != nil {
		errs = append(errs, persistenceErr(err, "read live matches"))
	}
	for _, item := range live {
		if err := m.enqueueLive(ctx, item.ID); err != nil {
			result.Failed++
			continue
		}
		result.Refreshed++
	}

	span.SetAttributes(
		attribute.Int("lifecycle.due", result.Due),
		attribute.Int("lifecycle.refreshed", result.Refreshed),
		attribute.Int("lifecycle.skipped", result.Skipped),
		attribute.Int("lifecycle.failed", result.Failed),
	)
	return result, errors.Join(errs...)
}

func (m *LifecycleMonitor) enqueueLive(ctx context.Context, matchID string) error {
	key := jobscheduler.TaskKey{MatchID: matchID, Kind: jobscheduler.TaskLive}
	if err := m.queue.Enqueue(ctx, key); err != nil {
		m.logger.ErrorContext(ctx, "enqueue live refresh failed",
			"match_id", matchID,
			"task_kind", key.Kind,
			"error", err,
		)
		return err
	}
	return nil
}

// Promote moves a due scheduled match to live. It is called after the live
// page was fetched, so a failing source never advances a match. It reports
// whether this call performed the transition.
func (m *LifecycleMonitor) Promote(ctx context.Context, item match.Match) (bool, error) {
	if item.Status != match.StatusScheduled || item.ScheduledAt == nil || item.ScheduledAt.After(m.now()) {
		return false, nil
	}
	ok, err := m.store.TransitionStatus(ctx, item.ID, match.StatusScheduled, match.StatusLive)
	if err != nil {
		return false, persistenceErr(err, "promote match_id=%s", item.ID)
	}
	if ok {
		m.logger.InfoContext(ctx, "match is live",
			"match_id", item.ID,
			"scheduled_at", item.ScheduledAt.UTC(),
		)
	}
	return ok, nil
}

// MarkCompleted applies an external completion signal. Live and scheduled
// matches move to completed; completed matches are left alone.
func (m *LifecycleMonitor) MarkCompleted(ctx context.Context, matchID string) (bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LifecycleMonitor.MarkCompleted")
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	if err := match.ValidateID(matchID); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	item, exists, err := m.store.GetMatch(ctx, matchID)
	if err != nil {
		return false, persistenceErr(err, "get match_id=%s", matchID)
	}
	if !exists {
		return false, fmt.Errorf("%w: match_id=%s", ErrNotFound, matchID)
	}
	if item.Status == match.StatusCompleted {
		return false, nil
	}
	if !match.CanTransition(item.Status, match.StatusCompleted, true) {
		return false, fmt.Errorf("%w: %s -> %s", match.ErrInvalidTransition, item.Status, match.StatusCompleted)
	}

	ok, err := m.store.TransitionStatus(ctx, matchID, item.Status, match.StatusCompleted)
	if err != nil {
		return false, persistenceErr(err, "complete match_id=%s", matchID)
	}
	if ok {
		m.logger.InfoContext(ctx, "match completed", "match_id", matchID, "previous_status", item.Status)
	}
	return ok, nil
}
