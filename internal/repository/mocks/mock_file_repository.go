package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/file-manager/internal/model"
)

type MockFileRepository struct {
	mock.Mock
}

func (m *MockFileRepository) Create(ctx context.Context, f *model.File) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockFileRepository) GetByID(ctx context.Context, id model.ID) (*model.File, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileRepository) GetOwned(ctx context.Context, id, ownerID model.ID) (*model.File, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileRepository) ListByParent(ctx context.Context, ownerID, parentID model.ID, limit, offset int) ([]model.File, error) {
	args := m.Called(ctx, ownerID, parentID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.File), args.Error(1)
}

func (m *MockFileRepository) ExistsByName(ctx context.Context, ownerID, parentID model.ID, name string) (bool, error) {
	args := m.Called(ctx, ownerID, parentID, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockFileRepository) SetVisibility(ctx context.Context, id, ownerID model.ID, public bool) (*model.File, error) {
	args := m.Called(ctx, id, ownerID, public)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileRepository) SetThumbnailStatus(ctx context.Context, id model.ID, status model.ThumbnailStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockFileRepository) SaveThumbnails(ctx context.Context, id model.ID, paths map[int]string) error {
	args := m.Called(ctx, id, paths)
	return args.Error(0)
}

func (m *MockFileRepository) ThumbnailPath(ctx context.Context, id model.ID, width int) (string, error) {
	args := m.Called(ctx, id, width)
	return args.String(0), args.Error(1)
}
