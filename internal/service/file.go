package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/iliyamo/file-manager/internal/logging"
	"github.com/iliyamo/file-manager/internal/model"
	"github.com/iliyamo/file-manager/internal/queue"
	"github.com/iliyamo/file-manager/internal/repository"
	"github.com/iliyamo/file-manager/internal/storage"
)

// PageSize is the number of records per List page.
const PageSize = 20

// BlobStore persists payloads for file and image records.
type BlobStore interface {
	Write(payload, fileID string) (string, error)
	Remove(path string) error
	Open(path string) (io.ReadSeekCloser, error)
}

// FileOptions tunes the registry rules.
type FileOptions struct {
	AllowDuplicateNames bool
}

// CreateFileInput is the raw creation request.
type CreateFileInput struct {
	Name     string
	Type     string
	IsPublic bool
	ParentID string
	Data     string
}

// CreateResult carries the stored record. EnqueueErr is set when the
// post-processing job could not be queued; the record is still valid.
type CreateResult struct {
	File       *model.File
	EnqueueErr error
}

// FileService implements the file registry.
type FileService struct {
	files repository.FileRepository
	blobs BlobStore
	jobs  Enqueuer
	opts  FileOptions
	log   logging.Logger
	now   func() time.Time
}

func NewFileService(files repository.FileRepository, blobs BlobStore, jobs Enqueuer, opts FileOptions, log logging.Logger) *FileService {
	return &FileService{
		files: files,
		blobs: blobs,
		jobs:  jobs,
		opts:  opts,
		log:   log.With("component", "files"),
		now:   func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// Create validates and stores a record for ownerID. For file and image
// records the payload is written first, then the record, then one
// post-processing job is queued.
func (s *FileService) Create(ctx context.Context, ownerID model.ID, in CreateFileInput) (*CreateResult, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name", "Missing name")
	}
	typ := model.FileType(in.Type)
	if !typ.Valid() {
		return nil, invalid("type", "Missing type")
	}
	parentID, err := model.ParseParentID(in.ParentID)
	if err != nil {
		return nil, invalid("parentId", "Parent not found")
	}
	if typ.HasContent() && in.Data == "" {
		return nil, invalid("data", "Missing data")
	}

	if !parentID.IsRoot() {
		parent, err := s.files.GetOwned(ctx, parentID, ownerID)
		if errors.Is(err, repository.ErrFileNotFound) {
			return nil, ErrParentNotFound
		}
		if err != nil {
			return nil, err
		}
		if parent.Type != model.FileTypeFolder {
			return nil, ErrParentNotFolder
		}
	}

	if !s.opts.AllowDuplicateNames {
		taken, err := s.files.ExistsByName(ctx, ownerID, parentID, name)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrNameTaken
		}
	}

	f := &model.File{
		ID:              model.NewID(),
		UserID:          ownerID,
		Name:            name,
		Type:            typ,
		IsPublic:        in.IsPublic,
		ParentID:        parentID,
		ThumbnailStatus: model.ThumbnailNone,
		CreatedAt:       s.now(),
	}
	if typ == model.FileTypeImage {
		f.ThumbnailStatus = model.ThumbnailPending
	}

	if typ.HasContent() {
		path, err := s.blobs.Write(in.Data, f.ID.String())
		if err != nil {
			if errors.Is(err, storage.ErrInvalidPayload) {
				return nil, invalid("data", "Invalid data")
			}
			return nil, err
		}
		f.LocalPath = path
	}

	if err := s.files.Create(ctx, f); err != nil {
		if f.LocalPath != "" {
			if rerr := s.blobs.Remove(f.LocalPath); rerr != nil {
				s.log.Error(ctx, "orphan blob left after failed insert", "path", f.LocalPath, "error", rerr)
			}
		}
		return nil, fmt.Errorf("persist file: %w", err)
	}

	res := &CreateResult{File: f}
	if typ.HasContent() {
		res.EnqueueErr = s.enqueue(ctx, f)
	}
	return res, nil
}

// enqueue hands the job to the dispatcher without waiting for the broker.
// Only an immediate rejection (buffer full, dispatcher closed) is reported
// to the caller; a later publish failure is logged and recorded on the file.
func (s *FileService) enqueue(ctx context.Context, f *model.File) error {
	if s.jobs == nil {
		return nil
	}
	done := s.jobs.Enqueue(queue.ThumbnailQueue, queue.ThumbnailJob{FileID: f.ID.String(), UserID: f.UserID.String()})
	select {
	case err := <-done:
		if err == nil {
			return nil
		}
		if s.markFailed(ctx, f.ID, f.Type, err) {
			f.ThumbnailStatus = model.ThumbnailFailed
		}
		return fmt.Errorf("%w: %v", ErrQueueEnqueue, err)
	default:
	}

	id, typ := f.ID, f.Type
	go func() {
		err := <-done
		if err == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.markFailed(ctx, id, typ, err)
	}()
	return nil
}

// markFailed logs a lost job and, for images, records that no thumbnails
// will be produced. It reports whether the status was updated.
func (s *FileService) markFailed(ctx context.Context, id model.ID, typ model.FileType, cause error) bool {
	s.log.Warn(ctx, "post-processing job not enqueued", "file_id", id.String(), "error", cause)
	if typ != model.FileTypeImage {
		return false
	}
	if err := s.files.SetThumbnailStatus(ctx, id, model.ThumbnailFailed); err != nil {
		s.log.Warn(ctx, "could not mark thumbnail failure", "file_id", id.String(), "error", err)
		return false
	}
	return true
}

// Get returns the record when requester may read it.
func (s *FileService) Get(ctx context.Context, rawID string, requester model.ID) (*model.File, error) {
	id, err := model.ParseID(rawID)
	if err != nil {
		return nil, ErrFileNotFound
	}
	f, err := s.files.GetByID(ctx, id)
	if errors.Is(err, repository.ErrFileNotFound) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	if !f.ReadableBy(requester) {
		return nil, ErrFileNotFound
	}
	return f, nil
}

// List returns one page of the requester's records directly under
// rawParent. Pages are zero-based and PageSize long.
func (s *FileService) List(ctx context.Context, requester model.ID, rawParent string, page int) ([]model.File, error) {
	parentID, err := model.ParseParentID(rawParent)
	if err != nil {
		return nil, invalid("parentId", "Parent not found")
	}
	if page < 0 {
		page = 0
	}
	// the offset would overflow; no owner has that many records
	if page > math.MaxInt/PageSize {
		return []model.File{}, nil
	}
	return s.files.ListByParent(ctx, requester, parentID, PageSize, page*PageSize)
}

// SetVisibility publishes or unpublishes a record owned by requester.
func (s *FileService) SetVisibility(ctx context.Context, rawID string, requester model.ID, public bool) (*model.File, error) {
	id, err := model.ParseID(rawID)
	if err != nil {
		return nil, ErrFileNotFound
	}
	f, err := s.files.SetVisibility(ctx, id, requester, public)
	if errors.Is(err, repository.ErrFileNotFound) {
		return nil, ErrFileNotFound
	}
	return f, err
}

// Content opens the blob to serve for a readable record. size 0 selects
// the original; otherwise it must be one of the thumbnail widths. The
// caller closes the returned reader.
func (s *FileService) Content(ctx context.Context, rawID string, requester model.ID, size int) (io.ReadSeekCloser, *model.File, error) {
	f, err := s.Get(ctx, rawID, requester)
	if err != nil {
		return nil, nil, err
	}
	if f.Type == model.FileTypeFolder {
		return nil, nil, ErrFolderHasNoContent
	}
	if size != 0 && !model.IsThumbnailWidth(size) {
		return nil, nil, invalid("size", "Invalid size")
	}

	path := f.LocalPath
	if size != 0 {
		path, err = s.files.ThumbnailPath(ctx, f.ID, size)
		if errors.Is(err, repository.ErrFileNotFound) {
			return nil, nil, ErrFileNotFound
		}
		if err != nil {
			return nil, nil, err
		}
	}
	rc, err := s.blobs.Open(path)
	if errors.Is(err, storage.ErrBlobNotFound) {
		return nil, nil, ErrFileNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return rc, f, nil
}
