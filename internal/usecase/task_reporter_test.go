package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/cricket-live/internal/domain/jobscheduler"
	"github.com/riskibarqy/cricket-live/internal/infrastructure/repository/memory"
	jobschedulermock "github.com/riskibarqy/cricket-live/internal/mocks/domain/jobscheduler"
	"github.com/riskibarqy/cricket-live/internal/platform/dispatch"
	"github.com/riskibarqy/cricket-live/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTaskReporter_FailureWritesOneLogAndOneEvent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	events := memory.NewTaskEventRepository()
	reporter := NewTaskReporter(events, logging.FromZap(zap.New(core)))

	key := jobscheduler.TaskKey{MatchID: "m1", Kind: jobscheduler.TaskLive}
	cause := fetchFailure("live", "src://live/m1", FetchResult{Outcome: FetchTransient, Attempts: 3, Err: ErrTransientFetch})
	reporter.Report(key, fmt.Errorf("refresh: %w", cause))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, "m1", entry.ContextMap()["match_id"])
	assert.Equal(t, true, entry.ContextMap()["transient"])

	recorded := events.Events()
	require.Len(t, recorded, 1)
	assert.Equal(t, jobscheduler.StatusFailed, recorded[0].Status)
	assert.Equal(t, 3, recorded[0].Attempts)
	assert.Contains(t, recorded[0].ErrorMessage, "live page")
}

func TestTaskReporter_ShutdownIsDropped(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	events := memory.NewTaskEventRepository()
	reporter := NewTaskReporter(events, logging.FromZap(zap.New(core)))

	key := jobscheduler.TaskKey{MatchID: "m1", Kind: jobscheduler.TaskDetails}
	reporter.Report(key, crerr.Wrap(dispatch.ErrShutdown, "task cancelled before start"))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
	assert.Equal(t, 1, events.Count(key, jobscheduler.StatusDropped))
}

func TestTaskReporter_RecordFailureIsLoggedUsingMockery(t *testing.T) {
	t.Parallel()

	repo := jobschedulermock.NewRepository(t)
	core, logs := observer.New(zapcore.DebugLevel)
	reporter := NewTaskReporter(repo, logging.FromZap(zap.New(core)))
	reporter.now = func() time.Time { return time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC) }

	key := jobscheduler.TaskKey{MatchID: "m1", Kind: jobscheduler.TaskDetails}
	repo.
		On("RecordEvent", mock.Anything, mock.MatchedBy(func(v jobscheduler.TaskEvent) bool {
			return v.TaskKey == key && v.Status == jobscheduler.StatusFailed && v.OccurredAt.Hour() == 10
		})).
		Return(errors.New("db down")).
		Once()

	reporter.Report(key, ErrPermanentFetch)
	assert.Equal(t, 1, logs.FilterMessage("task failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("record task event failed").Len())
}

func TestTaskRunner_ResolveAndRecordCompletion(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMatchStore()
	seedMatch(t, store, "m1", nil)
	fetcher := newFakeFetcher()
	fetcher.serve("src://details/m1", "venue=Eden Gardens")
	events := memory.NewTaskEventRepository()
	runner := NewTaskRunner(newIngestionForTest(store, fetcher, &recordingQueue{}, nil), events, logging.NewNop())

	key := jobscheduler.TaskKey{MatchID: "m1", Kind: jobscheduler.TaskDetails}
	work, err := runner.Resolve(key)
	require.NoError(t, err)
	require.NoError(t, work(ctx))
	assert.Equal(t, 1, events.Count(key, jobscheduler.StatusCompleted))

	info, ok, err := store.GetInfo(ctx, "m1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Eden Gardens", *info.Venue)
}

func TestTaskRunner_FailedWorkIsNotRecordedAsCompleted(t *testing.T) {
	store := memory.NewMatchStore()
	seedMatch(t, store, "m1", nil)
	events := memory.NewTaskEventRepository()
	runner := NewTaskRunner(newIngestionForTest(store, newFakeFetcher(), &recordingQueue{}, nil), events, logging.NewNop())

	key := jobscheduler.TaskKey{MatchID: "m1", Kind: jobscheduler.TaskDetails}
	work, err := runner.Resolve(key)
	require.NoError(t, err)
	assert.ErrorIs(t, work(context.Background()), ErrPermanentFetch)
	assert.Empty(t, events.Events())
}

func TestTaskRunner_ResolveRejectsBadKeys(t *testing.T) {
	runner := NewTaskRunner(nil, nil, logging.NewNop())

	_, err := runner.Resolve(jobscheduler.TaskKey{MatchID: "m1", Kind: "replay"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = runner.Resolve(jobscheduler.TaskKey{MatchID: "", Kind: jobscheduler.TaskLive})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = runner.Resolve(jobscheduler.TaskKey{MatchID: jobscheduler.FixturesKey, Kind: jobscheduler.TaskFixtures})
	assert.NoError(t, err)
}
