// Package session issues, resolves and revokes opaque bearer tokens.  Each
// token maps to a user id under the key auth_<token> with a fixed TTL;
// there is no sliding expiry.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/file-manager/internal/logging"
	"github.com/iliyamo/file-manager/internal/model"
	"github.com/iliyamo/file-manager/internal/utils"
)

// DefaultTTL is the lifetime of a session token.
const DefaultTTL = 24 * time.Hour

const keyPrefix = "auth_"

// ErrUnauthenticated is returned when Issue is asked for a token without an
// identified user.
var ErrUnauthenticated = errors.New("session: user not authenticated")

// Store is the subset of the KV adapter the manager needs.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) (int64, error)
}

// Manager owns the token lifecycle.
type Manager struct {
	store    Store
	ttl      time.Duration
	log      logging.Logger
	newToken func() (string, error)
}

// NewManager builds a Manager.  A non-positive ttl selects DefaultTTL.
func NewManager(store Store, ttl time.Duration, log logging.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		store:    store,
		ttl:      ttl,
		log:      log.With("component", "session"),
		newToken: utils.NewSessionToken,
	}
}

// TTL returns the lifetime applied to new tokens.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue creates a fresh token for user.  Callers must have verified the
// user's credentials already.
func (m *Manager) Issue(ctx context.Context, user *model.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", ErrUnauthenticated
	}
	token, err := m.newToken()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	if err := m.store.Set(ctx, key(token), user.ID.String(), m.ttl); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return token, nil
}

// Resolve returns the user id bound to token.  Missing, expired and
// unreadable tokens all resolve as absent.
func (m *Manager) Resolve(ctx context.Context, token string) (model.ID, bool) {
	if token == "" {
		return "", false
	}
	v, ok, err := m.store.Get(ctx, key(token))
	if err != nil {
		m.log.Warn(ctx, "token lookup failed", "error", err)
		return "", false
	}
	if !ok || v == "" {
		return "", false
	}
	return model.ID(v), true
}

// Revoke deletes token.  Revoking an absent token is not an error.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if _, err := m.store.Del(ctx, key(token)); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func key(token string) string { return keyPrefix + token }
