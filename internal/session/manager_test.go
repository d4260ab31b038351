package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/file-manager/internal/logging"
	"github.com/iliyamo/file-manager/internal/model"
)

type entry struct {
	value   string
	expires time.Time
}

// memStore is an in-memory Store with a controllable clock.
type memStore struct {
	mu     sync.Mutex
	now    time.Time
	data   map[string]entry
	ttls   map[string]time.Duration
	getErr error
}

func newMemStore() *memStore {
	return &memStore{now: time.Unix(1_700_000_000, 0), data: map[string]entry{}, ttls: map[string]time.Duration{}}
}

func (s *memStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", false, s.getErr
	}
	e, ok := s.data[key]
	if !ok || (!e.expires.IsZero() && !s.now.Before(e.expires)) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *memStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := entry{value: value}
	if ttl > 0 {
		e.expires = s.now.Add(ttl)
	}
	s.data[key] = e
	s.ttls[key] = ttl
	return nil
}

func (s *memStore) Del(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return 0, nil
	}
	delete(s.data, key)
	return 1, nil
}

func (s *memStore) advance(d time.Duration) {
	s.mu.Lock()
	s.now = s.now.Add(d)
	s.mu.Unlock()
}

func TestIssueResolveRoundTrip(t *testing.T) {
	store := newMemStore()
	m := NewManager(store, 0, logging.Discard())
	ctx := context.Background()
	user := &model.User{ID: model.NewID(), Email: "alice@example.com"}

	token, err := m.Issue(ctx, user)
	require.NoError(t, err)
	assert.Len(t, token, 64)

	got, ok := m.Resolve(ctx, token)
	assert.True(t, ok)
	assert.Equal(t, user.ID, got)
	assert.Equal(t, DefaultTTL, store.ttls["auth_"+token])
}

func TestIssueRequiresUser(t *testing.T) {
	m := NewManager(newMemStore(), time.Hour, logging.Discard())

	_, err := m.Issue(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = m.Issue(context.Background(), &model.User{Email: "x@y.z"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestIssueDistinctTokens(t *testing.T) {
	m := NewManager(newMemStore(), time.Hour, logging.Discard())
	user := &model.User{ID: model.NewID()}

	a, err := m.Issue(context.Background(), user)
	require.NoError(t, err)
	b, err := m.Issue(context.Background(), user)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestRevokeIsIdempotent(t *testing.T) {
	m := NewManager(newMemStore(), time.Hour, logging.Discard())
	ctx := context.Background()
	token, err := m.Issue(ctx, &model.User{ID: model.NewID()})
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, token))
	_, ok := m.Resolve(ctx, token)
	assert.False(t, ok)

	require.NoError(t, m.Revoke(ctx, token))
	_, ok = m.Resolve(ctx, token)
	assert.False(t, ok)
}

func TestResolveAfterExpiry(t *testing.T) {
	store := newMemStore()
	m := NewManager(store, time.Minute, logging.Discard())
	ctx := context.Background()
	token, err := m.Issue(ctx, &model.User{ID: model.NewID()})
	require.NoError(t, err)

	store.advance(59 * time.Second)
	_, ok := m.Resolve(ctx, token)
	assert.True(t, ok, "still live before ttl")

	store.advance(time.Second)
	_, ok = m.Resolve(ctx, token)
	assert.False(t, ok)
}

func TestResolveNeverFails(t *testing.T) {
	store := newMemStore()
	m := NewManager(store, time.Hour, logging.Discard())

	_, ok := m.Resolve(context.Background(), "")
	assert.False(t, ok)

	_, ok = m.Resolve(context.Background(), "unknown")
	assert.False(t, ok)

	store.getErr = errors.New("connection refused")
	_, ok = m.Resolve(context.Background(), "whatever")
	assert.False(t, ok)
}
