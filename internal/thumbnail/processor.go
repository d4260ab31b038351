// Package thumbnail implements the worker side of post-processing: it turns
// an uploaded image into fixed-width variants stored next to the original.
package thumbnail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/iliyamo/file-manager/internal/logging"
	"github.com/iliyamo/file-manager/internal/model"
	"github.com/iliyamo/file-manager/internal/queue"
	"github.com/iliyamo/file-manager/internal/repository"
	"github.com/iliyamo/file-manager/internal/storage"
)

// ErrPermanent marks a job that can never succeed; it is dropped without
// retry.
var ErrPermanent = errors.New("permanent job failure")

// FileStore is the subset of the file registry the worker needs.
type FileStore interface {
	GetOwned(ctx context.Context, id, ownerID model.ID) (*model.File, error)
	SaveThumbnails(ctx context.Context, id model.ID, paths map[int]string) error
	SetThumbnailStatus(ctx context.Context, id model.ID, status model.ThumbnailStatus) error
}

// UserStore resolves job owners.
type UserStore interface {
	GetByID(ctx context.Context, id model.ID) (*model.User, error)
}

// BlobStore reads originals and writes variants.
type BlobStore interface {
	Read(path string) ([]byte, error)
	WriteVariant(fileID string, width int, data []byte) (string, error)
}

// Options tunes retrying of transient failures.
type Options struct {
	MaxAttempts int
	BackoffBase time.Duration
}

// Processor handles messages from the thumbnail queue.
type Processor struct {
	files FileStore
	users UserStore
	blobs BlobStore
	log   logging.Logger
	opts  Options
}

func NewProcessor(files FileStore, users UserStore, blobs BlobStore, log logging.Logger, opts Options) *Processor {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = 500 * time.Millisecond
	}
	return &Processor{files: files, users: users, blobs: blobs, log: log.With("component", "thumbnail"), opts: opts}
}

func permanent(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPermanent, fmt.Sprintf(format, args...))
}

// Handle processes one ThumbnailJob body. A nil return acknowledges the
// message; errors drop it after the record has been marked failed.
func (p *Processor) Handle(ctx context.Context, body []byte) error {
	var job queue.ThumbnailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return permanent("malformed job: %v", err)
	}
	if job.FileID == "" {
		return permanent("missing fileId")
	}
	if job.UserID == "" {
		return permanent("missing userId")
	}
	fileID, err := model.ParseID(job.FileID)
	if err != nil {
		return permanent("fileId %q: %v", job.FileID, err)
	}
	userID, err := model.ParseID(job.UserID)
	if err != nil {
		return permanent("userId %q: %v", job.UserID, err)
	}

	log := p.log.With("file_id", fileID.String())
	var known bool
	err = p.retry(ctx, func(ctx context.Context) error {
		var err error
		known, err = p.process(ctx, fileID, userID)
		return err
	})
	if err == nil {
		return nil
	}
	if known && ctx.Err() == nil {
		if serr := p.files.SetThumbnailStatus(ctx, fileID, model.ThumbnailFailed); serr != nil {
			log.Warn(ctx, "could not mark thumbnail failure", "error", serr)
		}
	}
	return err
}

// process reports whether the file record was resolved so the caller knows
// whether a failed status can be recorded.
func (p *Processor) process(ctx context.Context, fileID, userID model.ID) (bool, error) {
	file, err := p.files.GetOwned(ctx, fileID, userID)
	if errors.Is(err, repository.ErrFileNotFound) {
		return false, permanent("file %s not found", fileID)
	}
	if err != nil {
		return false, retry.RetryableError(err)
	}
	if _, err := p.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return true, permanent("user %s not found", userID)
		}
		return true, retry.RetryableError(err)
	}

	if file.Type != model.FileTypeImage {
		return true, nil
	}

	data, err := p.blobs.Read(file.LocalPath)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			return true, permanent("blob %s missing", file.LocalPath)
		}
		return true, retry.RetryableError(err)
	}
	img, format, err := Decode(data)
	if err != nil {
		return true, permanent("%v", err)
	}

	paths := make(map[int]string, len(model.ThumbnailWidths))
	for _, w := range model.ThumbnailWidths {
		out, err := Encode(Resize(img, w), format)
		if err != nil {
			return true, permanent("encode %dpx: %v", w, err)
		}
		path, err := p.blobs.WriteVariant(fileID.String(), w, out)
		if err != nil {
			return true, retry.RetryableError(err)
		}
		paths[w] = path
	}

	if err := p.files.SaveThumbnails(ctx, fileID, paths); err != nil {
		return true, retry.RetryableError(err)
	}
	p.log.Info(ctx, "thumbnails generated", "file_id", fileID.String(), "variants", len(paths))
	return true, nil
}

func (p *Processor) retry(ctx context.Context, f retry.RetryFunc) error {
	b := retry.WithMaxRetries(uint64(p.opts.MaxAttempts-1), retry.NewExponential(p.opts.BackoffBase))
	return retry.Do(ctx, b, f)
}
