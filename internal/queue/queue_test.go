package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/file-manager/internal/logging"
	"github.com/iliyamo/file-manager/internal/metrics"
)

type published struct {
	queue string
	body  []byte
}

type fakePublisher struct {
	mu     sync.Mutex
	msgs   []published
	err    error
	block  chan struct{}
	sawCtx chan context.Context
}

func (f *fakePublisher) Publish(ctx context.Context, queue string, body []byte) error {
	if f.sawCtx != nil {
		f.sawCtx <- ctx
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{queue: queue, body: body})
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

func wait(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("enqueue result never arrived")
		return nil
	}
}

func TestDispatcher_PublishesJSON(t *testing.T) {
	pub := &fakePublisher{}
	m, err := metrics.NewWithRegistry(prometheus.NewRegistry())
	require.NoError(t, err)
	d := NewDispatcher(pub, DispatcherOptions{Metrics: m})
	defer d.Close(context.Background())

	err = wait(t, d.Enqueue(ThumbnailQueue, ThumbnailJob{FileID: "f1", UserID: "u1"}))

	require.NoError(t, err)
	require.Equal(t, 1, pub.count())
	assert.Equal(t, ThumbnailQueue, pub.msgs[0].queue)
	var got ThumbnailJob
	require.NoError(t, json.Unmarshal(pub.msgs[0].body, &got))
	assert.Equal(t, ThumbnailJob{FileID: "f1", UserID: "u1"}, got)
	assert.JSONEq(t, `{"fileId":"f1","userId":"u1"}`, string(pub.msgs[0].body))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsEnqueued.WithLabelValues(ThumbnailQueue, metrics.EnqueueOK)))
}

func TestDispatcher_ReportsPublishError(t *testing.T) {
	boom := errors.New("broker down")
	d := NewDispatcher(&fakePublisher{err: boom}, DispatcherOptions{Logger: logging.Discard()})
	defer d.Close(context.Background())

	err := wait(t, d.Enqueue(WelcomeQueue, WelcomeJob{UserID: "u1"}))

	assert.ErrorIs(t, err, boom)
}

func TestDispatcher_FullBufferFailsFast(t *testing.T) {
	pub := &fakePublisher{block: make(chan struct{}), sawCtx: make(chan context.Context, 4)}
	d := NewDispatcher(pub, DispatcherOptions{Buffer: 1, Workers: 1})

	first := d.Enqueue(ThumbnailQueue, ThumbnailJob{FileID: "1"})
	<-pub.sawCtx // worker holds job 1
	second := d.Enqueue(ThumbnailQueue, ThumbnailJob{FileID: "2"}) // fills the buffer

	start := time.Now()
	third := d.Enqueue(ThumbnailQueue, ThumbnailJob{FileID: "3"})
	assert.ErrorIs(t, wait(t, third), ErrQueueFull)
	assert.Less(t, time.Since(start), time.Second)

	close(pub.block)
	assert.NoError(t, wait(t, first))
	assert.NoError(t, wait(t, second))
	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, 2, pub.count())
}

func TestDispatcher_PublishContextIsDetached(t *testing.T) {
	pub := &fakePublisher{sawCtx: make(chan context.Context, 1)}
	d := NewDispatcher(pub, DispatcherOptions{Timeout: time.Minute})
	defer d.Close(context.Background())

	res := d.Enqueue(ThumbnailQueue, ThumbnailJob{FileID: "1"})
	ctx := <-pub.sawCtx

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
	assert.NoError(t, wait(t, res))
}

func TestDispatcher_Closed(t *testing.T) {
	d := NewDispatcher(&fakePublisher{}, DispatcherOptions{})
	require.NoError(t, d.Close(context.Background()))
	require.NoError(t, d.Close(context.Background()))

	assert.ErrorIs(t, wait(t, d.Enqueue(ThumbnailQueue, ThumbnailJob{})), ErrQueueClosed)
}

func TestDispatcher_MarshalError(t *testing.T) {
	d := NewDispatcher(&fakePublisher{}, DispatcherOptions{})
	defer d.Close(context.Background())

	err := wait(t, d.Enqueue(ThumbnailQueue, make(chan int)))

	assert.Error(t, err)
}

type fakeAck struct {
	acked, nacked, requeued bool
}

func (a *fakeAck) Ack(uint64, bool) error { a.acked = true; return nil }

func (a *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func (a *fakeAck) Reject(uint64, bool) error { return nil }

func TestConsumer_HandleSettlesDelivery(t *testing.T) {
	m, err := metrics.NewWithRegistry(prometheus.NewRegistry())
	require.NoError(t, err)

	t.Run("success acks", func(t *testing.T) {
		c := NewConsumer("amqp://x", ThumbnailQueue, 1, func(context.Context, []byte) error { return nil }, logging.Discard(), m)
		ack := &fakeAck{}

		c.handle(context.Background(), amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte(`{}`)})

		assert.True(t, ack.acked)
		assert.False(t, ack.nacked)
	})

	t.Run("error nacks without requeue", func(t *testing.T) {
		c := NewConsumer("amqp://x", ThumbnailQueue, 1, func(context.Context, []byte) error { return errors.New("bad") }, logging.Discard(), m)
		ack := &fakeAck{}

		c.handle(context.Background(), amqp.Delivery{Acknowledger: ack, DeliveryTag: 2})

		assert.False(t, ack.acked)
		assert.True(t, ack.nacked)
		assert.False(t, ack.requeued)
	})

	t.Run("error during shutdown requeues", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		c := NewConsumer("amqp://x", ThumbnailQueue, 1, func(ctx context.Context, _ []byte) error { return ctx.Err() }, logging.Discard(), m)
		ack := &fakeAck{}

		c.handle(ctx, amqp.Delivery{Acknowledger: ack, DeliveryTag: 3})

		assert.True(t, ack.nacked)
		assert.True(t, ack.requeued)
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.WorkerJobs.WithLabelValues(ThumbnailQueue, metrics.JobRetried)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WorkerJobs.WithLabelValues(ThumbnailQueue, metrics.JobAcked)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WorkerJobs.WithLabelValues(ThumbnailQueue, metrics.JobDropped)))
}

func TestConsumer_RunStopsOnCancelWhileDialFails(t *testing.T) {
	c := NewConsumer("amqp://x", ThumbnailQueue, 2, nil, logging.Discard(), nil)
	dials := 0
	c.dial = func(string) (*amqp.Connection, error) {
		dials++
		return nil, errors.New("connection refused")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := c.Run(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, dials)
}

func TestAMQPPublisher_DialFailure(t *testing.T) {
	p := NewAMQPPublisher("amqp://x", logging.Discard())
	p.dial = func(string) (*amqp.Connection, error) { return nil, errors.New("connection refused") }

	err := p.Publish(context.Background(), ThumbnailQueue, []byte(`{}`))

	assert.ErrorContains(t, err, "dial broker")
	assert.NoError(t, p.Close())
}
