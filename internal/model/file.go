package model

import "time"

// FileType enumerates the kinds of records the registry stores.
type FileType string

const (
	FileTypeFolder FileType = "folder"
	FileTypeFile   FileType = "file"
	FileTypeImage  FileType = "image"
)

// Valid reports whether t is one of the known variants.
func (t FileType) Valid() bool {
	switch t {
	case FileTypeFolder, FileTypeFile, FileTypeImage:
		return true
	}
	return false
}

// HasContent reports whether records of this type carry a blob.
func (t FileType) HasContent() bool { return t == FileTypeFile || t == FileTypeImage }

// ThumbnailStatus tracks the post-processing state of a record.
type ThumbnailStatus string

const (
	ThumbnailNone    ThumbnailStatus = "none"
	ThumbnailPending ThumbnailStatus = "pending"
	ThumbnailReady   ThumbnailStatus = "ready"
	ThumbnailFailed  ThumbnailStatus = "failed"
)

// ThumbnailWidths lists the derived variant widths in pixels.
var ThumbnailWidths = []int{500, 250, 100}

// IsThumbnailWidth reports whether w is one of ThumbnailWidths.
func IsThumbnailWidth(w int) bool {
	for _, tw := range ThumbnailWidths {
		if tw == w {
			return true
		}
	}
	return false
}

// File represents a row in the `files` table.  Folders never have a
// LocalPath; file and image records always have one once their payload
// is written.  UserID is fixed at creation.
//
// Fields:
//  ID              – UUID of the record.
//  UserID          – owner of the record.
//  Name            – display name.
//  Type            – folder, file or image.
//  IsPublic        – whether non-owners may read the record.
//  ParentID        – id of the parent folder or RootID.
//  LocalPath       – blob location on disk; empty for folders.
//  ThumbnailStatus – post-processing state.
//  CreatedAt       – timestamp of creation.
type File struct {
	ID              ID
	UserID          ID
	Name            string
	Type            FileType
	IsPublic        bool
	ParentID        ID
	LocalPath       string
	ThumbnailStatus ThumbnailStatus
	CreatedAt       time.Time
}

// ReadableBy reports whether requester may see the record.
func (f *File) ReadableBy(requester ID) bool {
	return f.IsPublic || (requester != "" && f.UserID == requester)
}
