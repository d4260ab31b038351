package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/file-manager/internal/logging"
	"github.com/iliyamo/file-manager/internal/metrics"
)

// Handler processes one message body. A nil error acknowledges the
// delivery; any error rejects it without requeue.
type Handler func(ctx context.Context, body []byte) error

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// Consumer pulls deliveries from one durable queue with manual
// acknowledgement. Unacked deliveries return to the queue if the worker
// dies, so a crash never loses a job.
type Consumer struct {
	url         string
	queue       string
	concurrency int
	handler     Handler
	log         logging.Logger
	metrics     *metrics.Metrics

	dial func(url string) (*amqp.Connection, error)
}

// NewConsumer builds a consumer running concurrency handlers at a time.
func NewConsumer(url, queue string, concurrency int, h Handler, log logging.Logger, m *metrics.Metrics) *Consumer {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Consumer{
		url:         url,
		queue:       queue,
		concurrency: concurrency,
		handler:     h,
		log:         log.With("component", "consumer", "queue", queue),
		metrics:     m,
		dial:        amqp.Dial,
	}
}

// Run connects to the broker and consumes until ctx is cancelled,
// reconnecting with capped exponential backoff whenever the connection or
// channel is lost.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := initialBackoff
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := c.dial(c.url)
		if err != nil {
			c.log.Warn(ctx, "failed to dial broker", "error", err, "retry_in", backoff.String())
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = initialBackoff // reset after successful connect

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn(ctx, "consume loop ended; reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// prefetch matches the number of handlers so no delivery waits unacked
	if err := ch.Qos(c.concurrency, 0, false); err != nil {
		c.log.Warn(ctx, "set QoS failed", "error", err)
	}

	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	c.log.Info(ctx, "consuming", "concurrency", c.concurrency)

	// closing the channel on cancel ends the deliveries range below
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = ch.Close()
		case <-stop:
		}
	}()

	var wg sync.WaitGroup
	wg.Add(c.concurrency)
	for i := 0; i < c.concurrency; i++ {
		go func() {
			defer wg.Done()
			for d := range msgs {
				c.handle(ctx, d)
			}
		}()
	}
	wg.Wait()
	return errors.New("deliveries channel closed")
}

// handle runs the handler and settles the delivery.
func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	if err := c.handler(ctx, d.Body); err != nil {
		c.log.Error(ctx, "handle message failed", "error", err, "delivery_tag", d.DeliveryTag)
		// reject without requeue to avoid tight loops, except when the
		// failure came from shutdown and another worker can finish the job
		requeue := ctx.Err() != nil
		if nerr := d.Nack(false, requeue); nerr != nil {
			c.log.Warn(ctx, "nack failed", "error", nerr)
		}
		if requeue {
			c.metrics.ObserveJob(c.queue, metrics.JobRetried)
		} else {
			c.metrics.ObserveJob(c.queue, metrics.JobDropped)
		}
		return
	}
	if err := d.Ack(false); err != nil {
		c.log.Warn(ctx, "ack failed", "error", err)
	}
	c.metrics.ObserveJob(c.queue, metrics.JobAcked)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
