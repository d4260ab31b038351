// Package storage keeps file payloads and their derived thumbnails on the
// local filesystem under a single root directory.
package storage

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrInvalidPayload is returned when the uploaded data is not valid base64.
	ErrInvalidPayload = errors.New("invalid base64 payload")
	// ErrStorageWrite wraps filesystem failures while persisting a blob.
	ErrStorageWrite = errors.New("storage write failed")
	// ErrBlobNotFound is returned when a stored path no longer exists.
	ErrBlobNotFound = errors.New("blob not found")
)

// DefaultRoot is used when FOLDER_PATH is unset.
const DefaultRoot = "/tmp/files_manager"

// Local is a Blob Store rooted at one directory. Blobs are named after the
// file id so two records never share a path.
type Local struct {
	root string
}

// NewLocal returns a store rooted at root. The directory is created lazily
// on the first write.
func NewLocal(root string) *Local {
	if strings.TrimSpace(root) == "" {
		root = DefaultRoot
	}
	return &Local{root: filepath.Clean(root)}
}

// Root returns the storage directory.
func (l *Local) Root() string { return l.root }

// Path returns where the original payload of fileID lives.
func (l *Local) Path(fileID string) string { return filepath.Join(l.root, fileID) }

// VariantPath returns where the width-px thumbnail of fileID lives.
func (l *Local) VariantPath(fileID string, width int) string {
	return filepath.Join(l.root, fileID+"_"+strconv.Itoa(width))
}

// Write decodes payload and stores it as the blob of fileID.
func (l *Local) Write(payload, fileID string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	dst := l.Path(fileID)
	if err := l.writeAtomic(dst, data); err != nil {
		return "", err
	}
	return dst, nil
}

// WriteVariant stores an already encoded thumbnail of fileID.
func (l *Local) WriteVariant(fileID string, width int, data []byte) (string, error) {
	dst := l.VariantPath(fileID, width)
	if err := l.writeAtomic(dst, data); err != nil {
		return "", err
	}
	return dst, nil
}

// writeAtomic writes through a temp file in the same directory and renames
// it into place, so readers only ever observe complete blobs.
func (l *Local) writeAtomic(dst string, data []byte) error {
	if err := os.MkdirAll(l.root, 0o755); err != nil {
		return fmt.Errorf("%w: create root: %v", ErrStorageWrite, err)
	}
	tmp, err := os.CreateTemp(l.root, ".upload-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		cleanup()
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	return nil
}

// Read returns the bytes stored at path.
func (l *Local) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, path)
	}
	return data, err
}

// Open returns the regular file stored at path for streaming. The caller
// closes it.
func (l *Local) Open(path string) (io.ReadSeekCloser, error) {
	if path == "" {
		return nil, ErrBlobNotFound
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	if st, err := f.Stat(); err != nil || !st.Mode().IsRegular() {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, path)
	}
	return f, nil
}

// Remove deletes path. Removing a missing blob is not an error.
func (l *Local) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
