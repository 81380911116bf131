package jobqueue

import (
	"context"
	"sync"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/cricket-live/internal/domain/jobscheduler"
	"github.com/riskibarqy/cricket-live/internal/platform/dispatch"
	"github.com/riskibarqy/cricket-live/internal/platform/logging"
	"github.com/riskibarqy/cricket-live/internal/usecase"
)

var ErrNotStarted = crerr.New("task queue not started")

// Submitter is the part of the dispatcher a queue feeds.
type Submitter interface {
	Submit(key jobscheduler.TaskKey, work dispatch.Work) error
}

// LocalQueue hands task keys straight to the in-process dispatcher.
type LocalQueue struct {
	dispatcher Submitter
	logger     *logging.Logger

	mu       sync.RWMutex
	resolver usecase.TaskResolver
}

func NewLocalQueue(dispatcher Submitter, logger *logging.Logger) *LocalQueue {
	if logger == nil {
		logger = logging.Default()
	}
	return &LocalQueue{dispatcher: dispatcher, logger: logger}
}

func (q *LocalQueue) Start(_ context.Context, resolver usecase.TaskResolver) error {
	q.mu.Lock()
	q.resolver = resolver
	q.mu.Unlock()
	return nil
}

// Enqueue resolves key and submits it. Coalesced and rejected submits are
// not errors here; the dispatcher reports rejections to its sink.
func (q *LocalQueue) Enqueue(ctx context.Context, key jobscheduler.TaskKey) error {
	q.mu.RLock()
	resolver := q.resolver
	q.mu.RUnlock()
	if resolver == nil {
		return ErrNotStarted
	}

	work, err := resolver.Resolve(key)
	if err != nil {
		return crerr.Wrapf(err, "resolve task %s", key)
	}
	if err := q.dispatcher.Submit(key, work); err != nil {
		q.logger.DebugContext(ctx, "task not accepted", "task_key", key.String(), "reason", err.Error())
	}
	return nil
}

func (q *LocalQueue) Close() error {
	return nil
}
