package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/file-manager/internal/model"
)

// FileRepository is the file registry consumed by the services and the
// thumbnail worker. Lookups that take an owner are scoped to that owner.
type FileRepository interface {
	Create(ctx context.Context, f *model.File) error
	GetByID(ctx context.Context, id model.ID) (*model.File, error)
	GetOwned(ctx context.Context, id, ownerID model.ID) (*model.File, error)
	ListByParent(ctx context.Context, ownerID, parentID model.ID, limit, offset int) ([]model.File, error)
	ExistsByName(ctx context.Context, ownerID, parentID model.ID, name string) (bool, error)
	SetVisibility(ctx context.Context, id, ownerID model.ID, public bool) (*model.File, error)
	SetThumbnailStatus(ctx context.Context, id model.ID, status model.ThumbnailStatus) error
	SaveThumbnails(ctx context.Context, id model.ID, paths map[int]string) error
	ThumbnailPath(ctx context.Context, id model.ID, width int) (string, error)
}

// FileRepo persists file records and their thumbnail variants in MySQL.
type FileRepo struct {
	db *sql.DB
}

func NewFileRepo(db *sql.DB) *FileRepo { return &FileRepo{db: db} }

// DB exposes the underlying sql.DB for callers needing a transaction.
func (r *FileRepo) DB() *sql.DB { return r.db }

const fileColumns = "id, user_id, name, type, is_public, parent_id, local_path, thumbnail_status, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(s rowScanner) (*model.File, error) {
	var (
		f    model.File
		path sql.NullString
	)
	err := s.Scan(&f.ID, &f.UserID, &f.Name, &f.Type, &f.IsPublic, &f.ParentID, &path, &f.ThumbnailStatus, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	f.LocalPath = path.String
	return &f, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts f. ParentID defaults to the root and ThumbnailStatus to
// none when unset.
func (r *FileRepo) Create(ctx context.Context, f *model.File) error {
	if f.ParentID == "" {
		f.ParentID = model.RootID
	}
	if f.ThumbnailStatus == "" {
		f.ThumbnailStatus = model.ThumbnailNone
	}
	const q = `INSERT INTO files (id, user_id, name, type, is_public, parent_id, local_path, thumbnail_status, created_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		f.ID.String(), f.UserID.String(), f.Name, string(f.Type), f.IsPublic,
		f.ParentID.String(), nullable(f.LocalPath), string(f.ThumbnailStatus), f.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("insert file %s: %w", f.ID, ErrConflict)
		}
		return err
	}
	return nil
}

// GetByID returns the record regardless of owner.
func (r *FileRepo) GetByID(ctx context.Context, id model.ID) (*model.File, error) {
	f, err := scanFile(r.db.QueryRowContext(ctx,
		"SELECT "+fileColumns+" FROM files WHERE id = ? LIMIT 1", id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFileNotFound
	}
	return f, err
}

// GetOwned returns the record only when ownerID owns it.
func (r *FileRepo) GetOwned(ctx context.Context, id, ownerID model.ID) (*model.File, error) {
	f, err := scanFile(r.db.QueryRowContext(ctx,
		"SELECT "+fileColumns+" FROM files WHERE id = ? AND user_id = ? LIMIT 1", id.String(), ownerID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFileNotFound
	}
	return f, err
}

// ListByParent returns the owner's records directly under parentID in
// insertion order.
func (r *FileRepo) ListByParent(ctx context.Context, ownerID, parentID model.ID, limit, offset int) ([]model.File, error) {
	const q = `SELECT ` + fileColumns + ` FROM files
               WHERE user_id = ? AND parent_id = ?
               ORDER BY seq ASC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, ownerID.String(), parentID.String(), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.File, 0, limit)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// ExistsByName reports whether the owner already has a sibling called name.
func (r *FileRepo) ExistsByName(ctx context.Context, ownerID, parentID model.ID, name string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM files WHERE user_id = ? AND parent_id = ? AND name = ? LIMIT 1",
		ownerID.String(), parentID.String(), name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetVisibility flips is_public on a record owned by ownerID and returns
// the updated record. Records of other owners report ErrFileNotFound.
func (r *FileRepo) SetVisibility(ctx context.Context, id, ownerID model.ID, public bool) (*model.File, error) {
	// RowsAffected is 0 when the value is unchanged, so existence is
	// decided by the follow-up read.
	if _, err := r.db.ExecContext(ctx,
		"UPDATE files SET is_public = ? WHERE id = ? AND user_id = ?",
		public, id.String(), ownerID.String()); err != nil {
		return nil, err
	}
	return r.GetOwned(ctx, id, ownerID)
}

// SetThumbnailStatus records the post-processing state of a record.
func (r *FileRepo) SetThumbnailStatus(ctx context.Context, id model.ID, status model.ThumbnailStatus) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE files SET thumbnail_status = ? WHERE id = ?", string(status), id.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Unchanged rows also report 0; only a missing record is an error.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// SaveThumbnails upserts the variant paths and marks the record ready in a
// single transaction, so a retried job overwrites rather than duplicates.
func (r *FileRepo) SaveThumbnails(ctx context.Context, id model.ID, paths map[int]string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const up = `INSERT INTO file_thumbnails (file_id, width, local_path) VALUES (?, ?, ?)
                ON DUPLICATE KEY UPDATE local_path = VALUES(local_path)`
	for _, w := range model.ThumbnailWidths {
		p, ok := paths[w]
		if !ok {
			continue
		}
		if _, err = tx.ExecContext(ctx, up, id.String(), w, p); err != nil {
			return err
		}
	}
	if _, err = tx.ExecContext(ctx,
		"UPDATE files SET thumbnail_status = ? WHERE id = ?", string(model.ThumbnailReady), id.String()); err != nil {
		return err
	}
	return tx.Commit()
}

// ThumbnailPath returns the stored location of one variant.
func (r *FileRepo) ThumbnailPath(ctx context.Context, id model.ID, width int) (string, error) {
	var p string
	err := r.db.QueryRowContext(ctx,
		"SELECT local_path FROM file_thumbnails WHERE file_id = ? AND width = ?", id.String(), width).Scan(&p)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrFileNotFound
	}
	return p, err
}
