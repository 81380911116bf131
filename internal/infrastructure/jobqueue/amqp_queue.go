package jobqueue

import (
	"context"
	"strings"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/cricket-live/internal/domain/jobscheduler"
	"github.com/riskibarqy/cricket-live/internal/platform/dispatch"
	"github.com/riskibarqy/cricket-live/internal/platform/logging"
	"github.com/riskibarqy/cricket-live/internal/usecase"
	"github.com/streadway/amqp"
)

type AMQPConfig struct {
	URL       string
	Queue     string
	Prefetch  int
	Heartbeat time.Duration
}

// AMQPQueue publishes task keys to a durable RabbitMQ queue and consumes
// them back into the dispatcher. Redelivered duplicates are harmless: the
// dispatcher coalesces keys and every write is idempotent.
type AMQPQueue struct {
	cfg        AMQPConfig
	dispatcher Submitter
	logger     *logging.Logger
	now        func() time.Time

	conn   *amqp.Connection
	pubMu  sync.Mutex
	pubCh  *amqp.Channel
	consCh *amqp.Channel
	done   chan struct{}
}

func DialAMQP(cfg AMQPConfig, dispatcher Submitter, logger *logging.Logger) (*AMQPQueue, error) {
	if logger == nil {
		logger = logging.Default()
	}
	cfg.URL = strings.TrimSpace(cfg.URL)
	if cfg.URL == "" {
		return nil, crerr.New("amqp url is required")
	}
	if strings.TrimSpace(cfg.Queue) == "" {
		cfg.Queue = "cricket-live.tasks"
	}
	if cfg.Prefetch < 1 {
		cfg.Prefetch = 32
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = 60 * time.Second
	}

	conn, err := amqp.DialConfig(cfg.URL, amqp.Config{
		Heartbeat: cfg.Heartbeat,
		Locale:    "en_US",
	})
	if err != nil {
		return nil, crerr.Wrap(err, "dial amqp")
	}

	pubCh, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, crerr.Wrap(err, "open amqp publish channel")
	}
	if _, err := pubCh.QueueDeclare(
		cfg.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		_ = conn.Close()
		return nil, crerr.Wrapf(err, "declare queue %s", cfg.Queue)
	}

	return &AMQPQueue{
		cfg:        cfg,
		dispatcher: dispatcher,
		logger:     logger.Named("amqp"),
		now:        time.Now,
		conn:       conn,
		pubCh:      pubCh,
		done:       make(chan struct{}),
	}, nil
}

func (q *AMQPQueue) Enqueue(ctx context.Context, key jobscheduler.TaskKey) error {
	body, err := EncodeMessage(key)
	if err != nil {
		return err
	}

	q.pubMu.Lock()
	defer q.pubMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := q.pubCh.Publish("", q.cfg.Queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    key.String(),
		Timestamp:    q.now().UTC(),
		Body:         body,
	}); err != nil {
		return crerr.Wrapf(err, "publish task %s", key)
	}
	return nil
}

// Start consumes the queue until ctx is done or the connection drops.
func (q *AMQPQueue) Start(ctx context.Context, resolver usecase.TaskResolver) error {
	ch, err := q.conn.Channel()
	if err != nil {
		return crerr.Wrap(err, "open amqp consume channel")
	}
	if err := ch.Qos(q.cfg.Prefetch, 0, false); err != nil {
		_ = ch.Close()
		return crerr.Wrap(err, "set amqp qos")
	}
	deliveries, err := ch.Consume(
		q.cfg.Queue,
		"cricket-live-worker",
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return crerr.Wrapf(err, "consume queue %s", q.cfg.Queue)
	}
	q.consCh = ch

	go q.consume(ctx, deliveries, resolver)
	q.logger.Info("consuming task queue", "queue", q.cfg.Queue, "prefetch", q.cfg.Prefetch)
	return nil
}

func (q *AMQPQueue) consume(ctx context.Context, deliveries <-chan amqp.Delivery, resolver usecase.TaskResolver) {
	defer close(q.done)
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				q.logger.Error("amqp delivery channel closed", "queue", q.cfg.Queue)
				return
			}
			q.handle(d, resolver)
		}
	}
}

// handle acks once the dispatcher accepted or coalesced the task. Messages
// the dispatcher turned away go back on the queue; messages that can never
// run are rejected without requeue.
func (q *AMQPQueue) handle(d amqp.Delivery, resolver usecase.TaskResolver) {
	key, err := DecodeMessage(d.Body)
	if err != nil {
		q.logger.Warn("rejecting task message", "message_id", d.MessageId, "error", err)
		_ = d.Nack(false, false)
		return
	}
	work, err := resolver.Resolve(key)
	if err != nil {
		q.logger.Warn("rejecting unresolvable task", "task_key", key.String(), "error", err)
		_ = d.Nack(false, false)
		return
	}

	if err := q.dispatcher.Submit(key, work); dispatch.IsRejected(err) {
		q.logger.Warn("requeueing task message", "task_key", key.String(), "error", err)
		_ = d.Nack(false, true)
		return
	}
	if err := d.Ack(false); err != nil {
		q.logger.Warn("ack task message failed", "task_key", key.String(), "error", err)
	}
}

func (q *AMQPQueue) Close() error {
	var errs []error
	if q.consCh != nil {
		errs = append(errs, q.consCh.Close())
	}
	q.pubMu.Lock()
	errs = append(errs, q.pubCh.Close())
	q.pubMu.Unlock()
	errs = append(errs, q.conn.Close())
	return crerr.Join(errs...)
}
