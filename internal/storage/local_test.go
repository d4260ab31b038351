package storage

import (
	"encoding/base64"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_WriteCreatesRootAndStoresBytes(t *testing.T) {
	root := filepath.Join(t.TempDir(), "files_manager")
	l := NewLocal(root)

	p, err := l.Write(base64.StdEncoding.EncodeToString([]byte("Hello Webstack!\n")), "abc")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "abc"), p)
	got, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "Hello Webstack!\n", string(got))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestLocal_WriteRejectsBadBase64(t *testing.T) {
	l := NewLocal(t.TempDir())

	_, err := l.Write("not base64!!", "abc")

	assert.ErrorIs(t, err, ErrInvalidPayload)
	_, err = l.Open(l.Path("abc"))
	assert.ErrorIs(t, err, ErrBlobNotFound)
}

func TestLocal_WriteFailsWhenRootIsAFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	l := NewLocal(blocker)

	_, err := l.Write(base64.StdEncoding.EncodeToString([]byte("x")), "abc")

	assert.ErrorIs(t, err, ErrStorageWrite)
}

func TestLocal_DistinctIDsDistinctPaths(t *testing.T) {
	l := NewLocal(t.TempDir())
	data := base64.StdEncoding.EncodeToString([]byte("same"))

	p1, err := l.Write(data, "one")
	require.NoError(t, err)
	p2, err := l.Write(data, "two")
	require.NoError(t, err)

	assert.NotEqual(t, p1, p2)
}

func TestLocal_OpenRejectsDirectories(t *testing.T) {
	l := NewLocal(t.TempDir())

	_, err := l.Open(l.Root())
	assert.ErrorIs(t, err, ErrBlobNotFound)

	_, err = l.Open("")
	assert.ErrorIs(t, err, ErrBlobNotFound)
}

func TestLocal_VariantsReadRemove(t *testing.T) {
	l := NewLocal(t.TempDir())

	p, err := l.WriteVariant("abc", 250, []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, l.VariantPath("abc", 250), p)
	assert.Equal(t, "abc_250", filepath.Base(p))
	rc, err := l.Open(p)
	require.NoError(t, err)
	streamed, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, []byte{1, 2, 3}, streamed)

	got, err := l.Read(p)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)

	require.NoError(t, l.Remove(p))
	_, err = l.Open(p)
	assert.ErrorIs(t, err, ErrBlobNotFound)
	assert.NoError(t, l.Remove(p))

	_, err = l.Read(p)
	assert.ErrorIs(t, err, ErrBlobNotFound)
}

func TestNewLocal_DefaultRoot(t *testing.T) {
	assert.Equal(t, DefaultRoot, NewLocal("").Root())
}
