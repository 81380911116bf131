package dispatch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/cricket-live/internal/domain/jobscheduler"
	"github.com/riskibarqy/cricket-live/internal/platform/logging"
)

var (
	ErrOverloaded      = crerr.New("dispatcher backlog is full")
	ErrShutdown        = crerr.New("dispatcher is shut down")
	ErrShutdownTimeout = crerr.New("dispatcher shutdown timed out with tasks in flight")
	ErrTaskPanic       = crerr.New("task panicked")
	// ErrCoalesced means the key was already in flight and the duplicate was
	// dropped. It is not a failure and never reaches the sink.
	ErrCoalesced = crerr.New("task key already in flight")
)

// CoalescePolicy decides what happens to a submit whose key is already in flight.
type CoalescePolicy string

const (
	// CoalesceDrop discards the duplicate.
	CoalesceDrop CoalescePolicy = "drop"
	// CoalesceQueue keeps one rerun that starts after the in-flight task finishes.
	CoalesceQueue CoalescePolicy = "queue"
)

func ParseCoalescePolicy(v string) (CoalescePolicy, error) {
	switch CoalescePolicy(strings.ToLower(strings.TrimSpace(v))) {
	case "", CoalesceDrop:
		return CoalesceDrop, nil
	case CoalesceQueue:
		return CoalesceQueue, nil
	default:
		return "", fmt.Errorf("invalid coalesce policy %q: valid values are %s, %s", v, CoalesceDrop, CoalesceQueue)
	}
}

// Work is one unit of fetch+parse+merge. ctx is cancelled on forced shutdown.
type Work = func(ctx context.Context) error

// Sink receives every task failure. It must be safe for concurrent use.
type Sink func(key jobscheduler.TaskKey, err error)

type Config struct {
	MaxInFlight int
	Backlog     int
	Coalesce    CoalescePolicy
	Sink        Sink
	Logger      *logging.Logger
}

type Stats struct {
	Submitted int64
	Coalesced int64
	Rejected  int64
	Completed int64
	Failed    int64
	Skipped   int64
}

type queuedTask struct {
	key  jobscheduler.TaskKey
	work Work
}

type slot struct {
	rerun Work
}

// Dispatcher runs keyed work on a bounded worker pool with at most one
// queued-or-running task per key.
type Dispatcher struct {
	pool     *ants.Pool
	queue    chan queuedTask
	coalesce CoalescePolicy
	sink     Sink
	logger   *logging.Logger

	mu     sync.Mutex
	slots  map[jobscheduler.TaskKey]*slot
	closed bool
	active int
	idle   chan struct{}

	// startCtx gates tasks that have not begun; runCtx is handed to running work.
	startCtx    context.Context
	stopStarts  context.CancelFunc
	runCtx      context.Context
	cancelRuns  context.CancelFunc
	feederDone  chan struct{}
	stats       struct{ submitted, coalesced, rejected, completed, failed, skipped atomic.Int64 }
	releaseOnce sync.Once
}

func New(cfg Config) (*Dispatcher, error) {
	if cfg.MaxInFlight < 1 {
		cfg.MaxInFlight = 8
	}
	if cfg.Backlog < 1 {
		cfg.Backlog = cfg.MaxInFlight * 32
	}
	if cfg.Coalesce == "" {
		cfg.Coalesce = CoalesceDrop
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	sink := cfg.Sink
	if sink == nil {
		sink = func(key jobscheduler.TaskKey, err error) {
			logger.Error("task failed", "task_key", key.String(), "error", err)
		}
	}

	pool, err := ants.NewPool(cfg.MaxInFlight, ants.WithLogger(antsLogger{logger: logger}))
	if err != nil {
		return nil, crerr.Wrap(err, "create worker pool")
	}

	idle := make(chan struct{})
	close(idle)

	startCtx, stopStarts := context.WithCancel(context.Background())
	runCtx, cancelRuns := context.WithCancel(context.Background())
	d := &Dispatcher{
		pool:       pool,
		queue:      make(chan queuedTask, cfg.Backlog),
		coalesce:   cfg.Coalesce,
		sink:       sink,
		logger:     logger,
		slots:      make(map[jobscheduler.TaskKey]*slot),
		idle:       idle,
		startCtx:   startCtx,
		stopStarts: stopStarts,
		runCtx:     runCtx,
		cancelRuns: cancelRuns,
		feederDone: make(chan struct{}),
	}
	go d.feed()
	return d, nil
}

// Submit enqueues work for key and returns immediately. A nil error means
// the work will run. ErrCoalesced means an equal key is already in flight.
// ErrOverloaded and ErrShutdown are rejections and are also sent to the sink.
func (d *Dispatcher) Submit(key jobscheduler.TaskKey, work Work) error {
	if work == nil {
		return crerr.Newf("nil work for task_key=%s", key.String())
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.stats.rejected.Add(1)
		d.sink(key, ErrShutdown)
		return ErrShutdown
	}
	if current, ok := d.slots[key]; ok {
		d.stats.coalesced.Add(1)
		if d.coalesce == CoalesceQueue {
			current.rerun = work
			d.mu.Unlock()
			return nil
		}
		d.mu.Unlock()
		d.logger.Debug("task coalesced, key already in flight", "task_key", key.String())
		return ErrCoalesced
	}

	select {
	case d.queue <- queuedTask{key: key, work: work}:
	default:
		d.mu.Unlock()
		d.stats.rejected.Add(1)
		err := crerr.Wrapf(ErrOverloaded, "task_key=%s", key.String())
		d.sink(key, err)
		return err
	}
	d.slots[key] = &slot{}
	if d.active == 0 {
		d.idle = make(chan struct{})
	}
	d.active++
	d.mu.Unlock()

	d.stats.submitted.Add(1)
	return nil
}

// IsRejected reports whether err from Submit means the work was turned away
// rather than coalesced.
func IsRejected(err error) bool {
	return crerr.Is(err, ErrOverloaded) || crerr.Is(err, ErrShutdown)
}

func (d *Dispatcher) feed() {
	defer close(d.feederDone)
	for task := range d.queue {
		if d.startCtx.Err() != nil {
			d.skip(task.key)
			continue
		}
		task := task
		if err := d.pool.Submit(func() { d.run(task.key, task.work) }); err != nil {
			d.stats.failed.Add(1)
			d.sink(task.key, crerr.Wrap(err, "submit to worker pool"))
			d.release(task.key)
		}
	}
}

func (d *Dispatcher) run(key jobscheduler.TaskKey, work Work) {
	for {
		if d.startCtx.Err() != nil {
			d.skip(key)
			return
		}

		if err := d.execute(work); err != nil {
			d.stats.failed.Add(1)
			d.sink(key, err)
		} else {
			d.stats.completed.Add(1)
		}

		d.mu.Lock()
		current := d.slots[key]
		if current != nil && current.rerun != nil {
			work = current.rerun
			current.rerun = nil
			d.mu.Unlock()
			continue
		}
		d.mu.Unlock()
		d.release(key)
		return
	}
}

func (d *Dispatcher) execute(work Work) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = crerr.Wrapf(ErrTaskPanic, "%v", r)
		}
	}()
	return work(d.runCtx)
}

func (d *Dispatcher) skip(key jobscheduler.TaskKey) {
	d.stats.skipped.Add(1)
	d.sink(key, crerr.Wrap(ErrShutdown, "task cancelled before start"))
	d.release(key)
}

func (d *Dispatcher) release(key jobscheduler.TaskKey) {
	d.mu.Lock()
	delete(d.slots, key)
	d.active--
	if d.active == 0 {
		close(d.idle)
	}
	d.mu.Unlock()
}

// InFlight returns the number of keys queued or running.
func (d *Dispatcher) InFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

func (d *Dispatcher) Stats() Stats {
	return Stats{
		Submitted: d.stats.submitted.Load(),
		Coalesced: d.stats.coalesced.Load(),
		Rejected:  d.stats.rejected.Load(),
		Completed: d.stats.completed.Load(),
		Failed:    d.stats.failed.Load(),
		Skipped:   d.stats.skipped.Load(),
	}
}

// Drain waits until no task is queued or running, or ctx is done.
func (d *Dispatcher) Drain(ctx context.Context) error {
	d.mu.Lock()
	idle := d.idle
	d.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting work, skips tasks that have not started and
// waits up to timeout for running ones. Past the bound, running tasks get
// their context cancelled and ErrShutdownTimeout is returned.
func (d *Dispatcher) Shutdown(timeout time.Duration) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.stopStarts()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := d.Drain(ctx)
	if err != nil {
		d.cancelRuns()
		d.logger.Warn("dispatcher shutdown deadline exceeded, cancelling running tasks",
			"timeout", timeout,
			"in_flight", d.InFlight(),
		)
		err = crerr.Wrapf(ErrShutdownTimeout, "in_flight=%d", d.InFlight())
	} else {
		<-d.feederDone
	}
	d.releaseOnce.Do(func() {
		d.cancelRuns()
		d.pool.Release()
	})
	return err
}

type antsLogger struct {
	logger *logging.Logger
}

func (l antsLogger) Printf(format string, args ...any) {
	l.logger.Warn("worker pool", "detail", fmt.Sprintf(format, args...))
}
