package model

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ID identifies users and file records.  Real identifiers are canonical
// UUID strings; the only other accepted value is RootID, which is valid
// solely as a parent reference.
type ID string

// RootID is the parent sentinel for records stored at the top level.
const RootID ID = "0"

// ErrInvalidID is returned when a raw identifier is neither a UUID nor,
// where permitted, the root sentinel.
var ErrInvalidID = errors.New("invalid id")

// NewID returns a fresh random identifier.
func NewID() ID { return ID(uuid.NewString()) }

// ParseID parses a record identifier.  The root sentinel is rejected
// because it never names a record.
func ParseID(raw string) (ID, error) {
	u, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", ErrInvalidID
	}
	return ID(u.String()), nil
}

// ParseParentID parses a parent reference.  Empty input and "0" both map
// to RootID.
func ParseParentID(raw string) (ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == string(RootID) {
		return RootID, nil
	}
	return ParseID(raw)
}

// IsRoot reports whether id is the root sentinel.
func (id ID) IsRoot() bool { return id == RootID }

func (id ID) String() string { return string(id) }
