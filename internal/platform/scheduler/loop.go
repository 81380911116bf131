package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/cricket-live/internal/platform/logging"
	"github.com/sourcegraph/conc"
)

// Operation is one independent piece of a tick.
type Operation struct {
	Name string
	Run  func(ctx context.Context) error
}

type Config struct {
	Interval   time.Duration
	Operations []Operation
	Logger     *logging.Logger
}

// Loop ticks immediately and then every Interval until its context ends.
// Each tick runs all operations concurrently; a tick that would overlap a
// still-running one is skipped.
type Loop struct {
	interval time.Duration
	ops      []Operation
	logger   *logging.Logger
	busy     atomic.Bool
	ticks    atomic.Int64
	skipped  atomic.Int64
}

func New(cfg Config) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = 300 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Loop{
		interval: cfg.Interval,
		ops:      cfg.Operations,
		logger:   logger.Named("scheduler"),
	}
}

// Run blocks until ctx is cancelled and waits for the running tick to end.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	var wg conc.WaitGroup
	defer wg.Wait()

	l.logger.Info("scheduler loop started", "interval", l.interval, "operations", len(l.ops))
	l.trigger(ctx, &wg)
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("scheduler loop stopping", "ticks", l.ticks.Load(), "skipped", l.skipped.Load())
			return
		case <-ticker.C:
			l.trigger(ctx, &wg)
		}
	}
}

func (l *Loop) trigger(ctx context.Context, wg *conc.WaitGroup) {
	if !l.busy.CompareAndSwap(false, true) {
		l.skipped.Add(1)
		l.logger.Warn("previous tick still running, skipping tick")
		return
	}
	wg.Go(func() {
		defer l.busy.Store(false)
		l.Tick(ctx)
	})
}

// Tick runs every operation once, concurrently, and returns when all are
// done. Errors and panics are logged per operation.
func (l *Loop) Tick(ctx context.Context) {
	l.ticks.Add(1)
	started := time.Now()

	var wg conc.WaitGroup
	for _, op := range l.ops {
		op := op
		wg.Go(func() {
			defer func() {
				if r := recover(); r != nil {
					l.logger.Error("tick operation panicked", "operation", op.Name, "panic", fmt.Sprint(r))
				}
			}()
			if err := op.Run(ctx); err != nil {
				l.logger.ErrorContext(ctx, "tick operation failed", "operation", op.Name, "error", err)
			}
		})
	}
	wg.Wait()
	l.logger.Debug("tick finished", "duration", time.Since(started))
}

func (l *Loop) Ticks() int64 {
	return l.ticks.Load()
}

func (l *Loop) Skipped() int64 {
	return l.skipped.Load()
}
