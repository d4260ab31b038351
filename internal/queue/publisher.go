package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/file-manager/internal/logging"
)

// ErrNotConfirmed is returned when the broker nacks a publish.
var ErrNotConfirmed = errors.New("queue: publish not confirmed by broker")

// Publisher delivers one message to a named queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, body []byte) error
}

// AMQPPublisher keeps one connection and one confirm-mode channel open and
// redials lazily after any failure. Publishes are serialised on the channel.
type AMQPPublisher struct {
	url string
	log logging.Logger

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	declared map[string]bool

	dial func(url string) (*amqp.Connection, error)
}

// NewAMQPPublisher does not connect; the first Publish does.
func NewAMQPPublisher(url string, log logging.Logger) *AMQPPublisher {
	return &AMQPPublisher{
		url:  url,
		log:  log.With("component", "amqp-publisher"),
		dial: amqp.Dial,
	}
}

// Publish declares queue if needed, sends body as a persistent JSON message
// and waits for the broker confirm or ctx expiry.
func (p *AMQPPublisher) Publish(ctx context.Context, queue string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	if !p.declared[queue] {
		// durable so messages survive broker restarts
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			p.reset()
			return fmt.Errorf("queue declare %s: %w", queue, err)
		}
		p.declared[queue] = true
	}

	conf, err := ch.PublishWithDeferredConfirmWithContext(ctx,
		"",    // default exchange
		queue, // routing key = queue name
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
	if err != nil {
		p.reset()
		return fmt.Errorf("publish %s: %w", queue, err)
	}

	acked, err := conf.WaitContext(ctx)
	if err != nil {
		// the confirm may still arrive on this channel; start clean
		p.reset()
		return fmt.Errorf("confirm %s: %w", queue, err)
	}
	if !acked {
		return ErrNotConfirmed
	}
	return nil
}

// channel returns the open confirm-mode channel, dialling when needed.
// Callers hold p.mu.
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := p.dial(p.url)
		if err != nil {
			p.log.Warn(context.Background(), "rabbitmq dial failed", "error", err)
			return nil, fmt.Errorf("dial broker: %w", err)
		}
		p.conn = conn
	}
	ch, err := p.conn.Channel()
	if err != nil {
		p.reset()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		p.reset()
		return nil, fmt.Errorf("confirm mode: %w", err)
	}
	p.ch = ch
	p.declared = make(map[string]bool)
	return ch, nil
}

// reset drops the channel and connection. Callers hold p.mu.
func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}
