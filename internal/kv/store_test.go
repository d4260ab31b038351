package kv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/file-manager/internal/logging"
)

func newTestStore() *Store {
	return &Store{log: logging.Discard()}
}

func TestLivenessHook_Dial(t *testing.T) {
	s := newTestStore()
	h := livenessHook{s: s}
	ctx := context.Background()

	assert.False(t, s.IsAlive(), "not alive before any handshake")

	ok := h.DialHook(func(context.Context, string, string) (net.Conn, error) {
		c1, c2 := net.Pipe()
		_ = c2.Close()
		return c1, nil
	})
	conn, err := ok(ctx, "tcp", "redis:6379")
	assert.NoError(t, err)
	_ = conn.Close()
	assert.True(t, s.IsAlive())

	refused := h.DialHook(func(context.Context, string, string) (net.Conn, error) {
		return nil, &net.OpError{Op: "dial", Err: errors.New("connection refused")}
	})
	_, err = refused(ctx, "tcp", "redis:6379")
	assert.Error(t, err)
	assert.False(t, s.IsAlive())
}

func TestLivenessHook_Process(t *testing.T) {
	s := newTestStore()
	h := livenessHook{s: s}
	ctx := context.Background()
	cmd := redis.NewStatusCmd(ctx, "ping")

	run := func(err error) {
		_ = h.ProcessHook(func(context.Context, redis.Cmder) error { return err })(ctx, cmd)
	}

	run(redis.Nil)
	assert.True(t, s.IsAlive(), "a missing key is a healthy reply")

	run(errors.New("WRONGTYPE Operation against a key holding the wrong kind of value"))
	assert.True(t, s.IsAlive(), "command errors do not flip liveness")

	run(io.EOF)
	assert.False(t, s.IsAlive())

	run(nil)
	assert.True(t, s.IsAlive())

	_ = h.ProcessPipelineHook(func(context.Context, []redis.Cmder) error { return redis.ErrClosed })(ctx, nil)
	assert.False(t, s.IsAlive())
}

func TestIsConnError(t *testing.T) {
	assert.True(t, isConnError(&net.OpError{Op: "read", Err: errors.New("reset")}))
	assert.True(t, isConnError(io.ErrUnexpectedEOF))
	assert.False(t, isConnError(errors.New("ERR syntax error")))
	assert.False(t, isConnError(context.DeadlineExceeded))
	assert.False(t, isConnError(fmt.Errorf("set auth_x: %w", context.Canceled)))
}

func TestLivenessHook_CallerTimeoutKeepsAlive(t *testing.T) {
	s := newTestStore()
	s.alive.Store(true)
	h := livenessHook{s: s}

	h.observe(context.Background(), context.DeadlineExceeded)

	assert.True(t, s.IsAlive())
}
