package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/iliyamo/file-manager/internal/model"
	"github.com/iliyamo/file-manager/internal/repository"
	"github.com/iliyamo/file-manager/internal/storage"
	"github.com/iliyamo/file-manager/internal/utils"
)

type enqueued struct {
	queue   string
	payload any
}

// fakeEnqueuer records jobs and answers with err.
type fakeEnqueuer struct {
	mu   sync.Mutex
	jobs []enqueued
	err  error
}

func (f *fakeEnqueuer) Enqueue(queue string, payload any) <-chan error {
	f.mu.Lock()
	f.jobs = append(f.jobs, enqueued{queue: queue, payload: payload})
	f.mu.Unlock()
	ch := make(chan error, 1)
	ch <- f.err
	return ch
}

func (f *fakeEnqueuer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

// fakeBlobs wraps a real store so tests can inject write failures.
type fakeBlobs struct {
	*storage.Local
	writes   int
	writeErr error
}

func (b *fakeBlobs) Write(payload, fileID string) (string, error) {
	b.writes++
	if b.writeErr != nil {
		return "", b.writeErr
	}
	return b.Local.Write(payload, fileID)
}

func (b *fakeBlobs) count() int {
	entries, err := os.ReadDir(b.Root())
	if err != nil {
		return 0
	}
	return len(entries)
}

// memUsers is an in-memory user directory.
type memUsers struct {
	mu   sync.Mutex
	byID map[model.ID]*model.User
}

func newMemUsers() *memUsers { return &memUsers{byID: map[model.ID]*model.User{}} }

func (m *memUsers) Create(_ context.Context, email, password string, cost int) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = repository.NormalizeEmail(email)
	for _, u := range m.byID {
		if u.Email == email {
			return nil, repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return nil, err
	}
	u := &model.User{ID: model.NewID(), Email: email, PasswordHash: hash}
	m.byID[u.ID] = u
	return u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = repository.NormalizeEmail(email)
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memUsers) GetByID(_ context.Context, id model.ID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

// memSessions maps tokens to user ids.
type memSessions struct {
	mu     sync.Mutex
	tokens map[string]model.ID
	n      int
}

func newMemSessions() *memSessions { return &memSessions{tokens: map[string]model.ID{}} }

func (s *memSessions) Issue(_ context.Context, u *model.User) (string, error) {
	if u == nil || u.ID == "" {
		return "", errors.New("no user")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	tok := fmt.Sprintf("token-%d", s.n)
	s.tokens[tok] = u.ID
	return tok, nil
}

func (s *memSessions) Resolve(_ context.Context, token string) (model.ID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.tokens[token]
	return id, ok
}

func (s *memSessions) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

// memFiles is an in-memory file registry ordered by insertion.
type memFiles struct {
	mu         sync.Mutex
	rows       []*model.File
	thumbs     map[model.ID]map[int]string
	createErr  error
	statusSets []model.ThumbnailStatus
}

func newMemFiles() *memFiles { return &memFiles{thumbs: map[model.ID]map[int]string{}} }

func (m *memFiles) Create(_ context.Context, f *model.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	cp := *f
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memFiles) find(id model.ID) *model.File {
	for _, f := range m.rows {
		if f.ID == id {
			return f
		}
	}
	return nil
}

func (m *memFiles) GetByID(_ context.Context, id model.ID) (*model.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f := m.find(id); f != nil {
		cp := *f
		return &cp, nil
	}
	return nil, repository.ErrFileNotFound
}

func (m *memFiles) GetOwned(ctx context.Context, id, ownerID model.ID) (*model.File, error) {
	f, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.UserID != ownerID {
		return nil, repository.ErrFileNotFound
	}
	return f, nil
}

func (m *memFiles) ListByParent(_ context.Context, ownerID, parentID model.ID, limit, offset int) ([]model.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.File{}
	i := 0
	for _, f := range m.rows {
		if f.UserID != ownerID || f.ParentID != parentID {
			continue
		}
		if i >= offset && len(out) < limit {
			out = append(out, *f)
		}
		i++
	}
	return out, nil
}

func (m *memFiles) ExistsByName(_ context.Context, ownerID, parentID model.ID, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.rows {
		if f.UserID == ownerID && f.ParentID == parentID && f.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *memFiles) SetVisibility(ctx context.Context, id, ownerID model.ID, public bool) (*model.File, error) {
	m.mu.Lock()
	f := m.find(id)
	if f != nil && f.UserID == ownerID {
		f.IsPublic = public
	}
	m.mu.Unlock()
	return m.GetOwned(ctx, id, ownerID)
}

func (m *memFiles) SetThumbnailStatus(_ context.Context, id model.ID, status model.ThumbnailStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusSets = append(m.statusSets, status)
	if f := m.find(id); f != nil {
		f.ThumbnailStatus = status
		return nil
	}
	return repository.ErrFileNotFound
}

func (m *memFiles) SaveThumbnails(_ context.Context, id model.ID, paths map[int]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thumbs[id] = paths
	if f := m.find(id); f != nil {
		f.ThumbnailStatus = model.ThumbnailReady
	}
	return nil
}

func (m *memFiles) ThumbnailPath(_ context.Context, id model.ID, width int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.thumbs[id][width]; ok {
		return p, nil
	}
	return "", repository.ErrFileNotFound
}
