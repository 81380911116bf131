package app

import (
	"context"
	"fmt"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/riskibarqy/cricket-live/external/crex"
	"github.com/riskibarqy/cricket-live/internal/config"
	"github.com/riskibarqy/cricket-live/internal/domain/jobscheduler"
	"github.com/riskibarqy/cricket-live/internal/domain/match"
	"github.com/riskibarqy/cricket-live/internal/infrastructure/jobqueue"
	"github.com/riskibarqy/cricket-live/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/cricket-live/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/cricket-live/internal/platform/dispatch"
	"github.com/riskibarqy/cricket-live/internal/platform/logging"
	"github.com/riskibarqy/cricket-live/internal/platform/scheduler"
	"github.com/riskibarqy/cricket-live/internal/usecase"
)

const (
	OperationFixtures  = "fixtures"
	OperationLifecycle = "lifecycle"
)

type taskQueue interface {
	usecase.TaskQueue
	Start(ctx context.Context, resolver usecase.TaskResolver) error
	Close() error
}

// Worker is the assembled ingestion process: store, fetcher, dispatcher,
// task queue, lifecycle monitor and the scheduler loop driving them.
type Worker struct {
	cfg        config.Config
	logger     *logging.Logger
	db         *sqlx.DB
	store      match.Store
	events     jobscheduler.Repository
	dispatcher *dispatch.Dispatcher
	queue      taskQueue
	monitor    *usecase.LifecycleMonitor
	ingestion  *usecase.IngestionService
	runner     *usecase.TaskRunner
	loop       *scheduler.Loop
}

func NewWorker(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Worker, error) {
	if logger == nil {
		logger = logging.Default()
	}
	w := &Worker{cfg: cfg, logger: logger}

	if err := w.openStore(ctx); err != nil {
		return nil, err
	}

	reporter := usecase.NewTaskReporter(w.events, logger)
	dispatcher, err := dispatch.New(dispatch.Config{
		MaxInFlight: cfg.DispatchMaxInFlight,
		Backlog:     cfg.DispatchBacklog,
		Coalesce:    cfg.DispatchCoalesce,
		Sink:        reporter.Report,
		Logger:      logger.Named("dispatch"),
	})
	if err != nil {
		w.closeDB()
		return nil, fmt.Errorf("build dispatcher: %w", err)
	}
	w.dispatcher = dispatcher

	if err := w.openQueue(); err != nil {
		_ = dispatcher.Shutdown(time.Second)
		w.closeDB()
		return nil, err
	}

	fetcher := crex.NewFetcher(crex.FetcherConfig{
		UserAgent:      cfg.UserAgent,
		MaxAttempts:    cfg.FetchMaxAttempts,
		BackoffBase:    cfg.FetchBackoffBase,
		BackoffMax:     cfg.FetchBackoffMax,
		MaxElapsed:     cfg.FetchMaxElapsed,
		Logger:         logger.Named("fetcher"),
		CircuitBreaker: cfg.SourceCircuit(),
	})

	w.monitor = usecase.NewLifecycleMonitor(w.store, w.queue, logger)
	w.ingestion = usecase.NewIngestionService(
		w.store,
		fetcher,
		crex.NewExtractor(),
		crex.NewRouter(cfg.BaseURL),
		w.queue,
		w.monitor,
		usecase.IngestionConfig{
			FetchTimeout:   cfg.FetchTimeout,
			SourceLocation: cfg.SourceLocation,
		},
		logger,
	)
	w.runner = usecase.NewTaskRunner(w.ingestion, w.events, logger)

	w.loop = scheduler.New(scheduler.Config{
		Interval: cfg.PollInterval,
		Logger:   logger,
		Operations: []scheduler.Operation{
			{Name: OperationFixtures, Run: w.enqueueFixtures},
			{Name: OperationLifecycle, Run: w.evaluateLifecycle},
		},
	})

	logger.Info("worker assembled",
		"store_driver", cfg.StoreDriver,
		"queue_driver", cfg.QueueDriver,
		"base_url", cfg.BaseURL,
		"poll_interval", cfg.PollInterval,
		"max_in_flight", cfg.DispatchMaxInFlight,
		"coalesce", string(cfg.DispatchCoalesce),
	)
	return w, nil
}

func (w *Worker) openStore(ctx context.Context) error {
	switch w.cfg.StoreDriver {
	case config.StoreDriverPostgres:
		db, err := openPostgres(ctx, w.cfg, w.logger)
		if err != nil {
			return err
		}
		w.db = db
		w.store = postgres.NewMatchStore(db)
		w.events = postgres.NewTaskEventRepository(db)
	default:
		w.store = memory.NewMatchStore()
		w.events = memory.NewTaskEventRepository()
	}
	return nil
}

func openPostgres(ctx context.Context, cfg config.Config, logger *logging.Logger) (*sqlx.DB, error) {
	dbURL := NormalizeDBURL(cfg.DBURL, cfg.ServiceName, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Open("postgres", dbURL,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(dbURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.DispatchMaxInFlight * 2)
	db.SetMaxIdleConns(cfg.DispatchMaxInFlight)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("postgres connected", "db_url", redactDBURL(dbURL), "max_open_conns", cfg.DispatchMaxInFlight*2)
	return db, nil
}

func (w *Worker) openQueue() error {
	switch w.cfg.QueueDriver {
	case config.QueueDriverAMQP:
		queue, err := jobqueue.DialAMQP(jobqueue.AMQPConfig{
			URL:      w.cfg.AMQPURL,
			Queue:    w.cfg.AMQPQueue,
			Prefetch: w.cfg.AMQPPrefetch,
		}, w.dispatcher, w.logger.Named("amqp"))
		if err != nil {
			return fmt.Errorf("dial task queue: %w", err)
		}
		w.queue = queue
	default:
		w.queue = jobqueue.NewLocalQueue(w.dispatcher, w.logger.Named("queue"))
	}
	return nil
}

func (w *Worker) enqueueFixtures(ctx context.Context) error {
	return w.queue.Enqueue(ctx, jobscheduler.TaskKey{
		Kind:    jobscheduler.TaskFixtures,
		MatchID: jobscheduler.FixturesKey,
	})
}

func (w *Worker) evaluateLifecycle(ctx context.Context) error {
	_, err := w.monitor.Evaluate(ctx)
	return err
}

// Start begins consuming tasks. Deliveries stop when ctx is done.
func (w *Worker) Start(ctx context.Context) error {
	if err := w.queue.Start(ctx, w.runner); err != nil {
		return fmt.Errorf("start task queue: %w", err)
	}
	return nil
}

// Run starts consuming tasks and ticks the scheduler until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	w.loop.Run(ctx)
	return nil
}

// Shutdown drains the dispatcher within timeout and releases the queue and
// database. Call it after the context passed to Run is done.
func (w *Worker) Shutdown(timeout time.Duration) error {
	var errs []error
	if err := w.dispatcher.Shutdown(timeout); err != nil {
		errs = append(errs, err)
	}
	if err := w.queue.Close(); err != nil {
		errs = append(errs, crerr.Wrap(err, "close task queue"))
	}
	if w.db != nil {
		if err := w.db.Close(); err != nil {
			errs = append(errs, crerr.Wrap(err, "close postgres"))
		}
	}
	return crerr.Join(errs...)
}

func (w *Worker) closeDB() {
	if w.db != nil {
		_ = w.db.Close()
	}
}

// Status is the worker snapshot served on /healthz.
type Status struct {
	Ticks        int64          `json:"ticks"`
	SkippedTicks int64          `json:"skipped_ticks"`
	InFlight     int            `json:"in_flight"`
	Dispatch     dispatch.Stats `json:"dispatch"`
}

func (w *Worker) Status() Status {
	return Status{
		Ticks:        w.loop.Ticks(),
		SkippedTicks: w.loop.Skipped(),
		InFlight:     w.dispatcher.InFlight(),
		Dispatch:     w.dispatcher.Stats(),
	}
}

// Store exposes the record store for tests and tooling.
func (w *Worker) Store() match.Store {
	return w.store
}

// Events exposes the task event log for tests and tooling.
func (w *Worker) Events() jobscheduler.Repository {
	return w.events
}

// Tick runs one scheduler tick synchronously.
func (w *Worker) Tick(ctx context.Context) {
	w.loop.Tick(ctx)
}

// Drain waits until the dispatcher is idle.
func (w *Worker) Drain(ctx context.Context) error {
	return w.dispatcher.Drain(ctx)
}
