// Package kv wraps the Redis client used for session keys.  The adapter
// tracks whether the connection is actually usable so health checks report
// live state instead of "client constructed".
package kv

import (
	"context"
	"errors"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/file-manager/internal/logging"
)

// Store exposes get/set-with-ttl/delete over Redis.
type Store struct {
	rdb   *redis.Client
	log   logging.Logger
	alive atomic.Bool
}

// New wraps rdb and installs the liveness hook.  The store reports not
// alive until the first successful dial or command.
func New(rdb *redis.Client, log logging.Logger) *Store {
	s := &Store{rdb: rdb, log: log.With("component", "kv")}
	rdb.AddHook(livenessHook{s: s})
	return s
}

// IsAlive reports the last observed connection state.
func (s *Store) IsAlive() bool { return s.alive.Load() }

// Ping performs a round trip; its outcome updates the liveness flag through
// the hook.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Get returns the value stored under key.  A missing key is reported with
// ok=false and no error.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set stores value under key.  A ttl of zero or less stores the key without
// expiry.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

// Del removes key and returns how many keys were deleted (0 or 1).
func (s *Store) Del(ctx context.Context, key string) (int64, error) {
	return s.rdb.Del(ctx, key).Result()
}

// Monitor pings Redis every interval until ctx is cancelled so the liveness
// flag recovers even when no traffic flows.
func (s *Store) Monitor(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		pctx, cancel := context.WithTimeout(ctx, interval)
		if err := s.Ping(pctx); err != nil && ctx.Err() == nil {
			s.log.Warn(ctx, "redis ping failed", "error", err)
		}
		cancel()
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// Close releases the underlying client.
func (s *Store) Close() error {
	s.alive.Store(false)
	return s.rdb.Close()
}

func (s *Store) markAlive(ctx context.Context) {
	if !s.alive.Swap(true) {
		s.log.Info(ctx, "connected to redis")
	}
}

func (s *Store) markDown(ctx context.Context, err error) {
	if s.alive.Swap(false) {
		s.log.Error(ctx, "redis connection error", "error", err)
	}
}

// livenessHook flips the store's flag on dial outcomes and on
// connection-level command failures.
type livenessHook struct{ s *Store }

func (h livenessHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if err != nil {
			h.s.markDown(ctx, err)
			return nil, err
		}
		h.s.markAlive(ctx)
		return conn, nil
	}
}

func (h livenessHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		h.observe(ctx, err)
		return err
	}
}

func (h livenessHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		h.observe(ctx, err)
		return err
	}
}

func (h livenessHook) observe(ctx context.Context, err error) {
	switch {
	case err == nil, errors.Is(err, redis.Nil):
		h.s.markAlive(ctx)
	case isConnError(err):
		h.s.markDown(ctx, err)
	}
}

// isConnError separates transport failures from command-level replies such
// as WRONGTYPE, which say nothing about the connection. A caller's expired
// or cancelled context is not a transport failure either, even though
// context.DeadlineExceeded satisfies net.Error.
func isConnError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, redis.ErrClosed) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}
