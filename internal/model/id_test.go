package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParentID(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    ID
		wantErr bool
	}{
		{name: "empty is root", raw: "", want: RootID},
		{name: "zero is root", raw: "0", want: RootID},
		{name: "uuid", raw: "3F2504E0-4F89-11D3-9A0C-0305E82C3301", want: "3f2504e0-4f89-11d3-9a0c-0305e82c3301"},
		{name: "object id form rejected", raw: "5f1d7f0e9b1e8a3c2c4d5e6f", wantErr: true},
		{name: "garbage", raw: "../etc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseParentID(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIDRejectsRoot(t *testing.T) {
	_, err := ParseID("0")
	assert.ErrorIs(t, err, ErrInvalidID)

	id := NewID()
	parsed, err := ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
	assert.False(t, parsed.IsRoot())
}

func TestFileReadableBy(t *testing.T) {
	owner, other := NewID(), NewID()
	f := &File{UserID: owner}

	assert.True(t, f.ReadableBy(owner))
	assert.False(t, f.ReadableBy(other))
	assert.False(t, f.ReadableBy(""))

	f.IsPublic = true
	assert.True(t, f.ReadableBy(other))
}

func TestFileTypeValid(t *testing.T) {
	assert.True(t, FileTypeFolder.Valid())
	assert.True(t, FileTypeImage.Valid())
	assert.False(t, FileType("video").Valid())
	assert.False(t, FileTypeFolder.HasContent())
	assert.True(t, FileTypeFile.HasContent())
	assert.True(t, IsThumbnailWidth(250))
	assert.False(t, IsThumbnailWidth(300))
}
