// Package service holds the business rules of the file manager: account
// and session handling, and the file registry. Handlers translate the
// errors defined here into HTTP responses.
package service

import (
	"errors"

	"github.com/iliyamo/file-manager/internal/repository"
)

var (
	// ErrUnauthorized covers missing, expired or unknown tokens and any
	// credential mismatch. It never says which part was wrong.
	ErrUnauthorized = errors.New("Unauthorized")
	// ErrDuplicateUser is returned when registering a taken email.
	ErrDuplicateUser = repository.ErrEmailExists
	// ErrParentNotFound is returned when parentId does not name a folder
	// owned by the caller.
	ErrParentNotFound = errors.New("Parent not found")
	// ErrParentNotFolder is a more specific ErrParentNotFound.
	ErrParentNotFolder error = &parentError{msg: "Parent is not a folder"}
	// ErrNameTaken is returned when duplicate sibling names are disabled.
	ErrNameTaken = errors.New("Name already exists in this folder")
	// ErrFileNotFound hides both missing records and records the caller
	// may not read.
	ErrFileNotFound = errors.New("Not found")
	// ErrFolderHasNoContent is returned when asking for a folder's data.
	ErrFolderHasNoContent = errors.New("A folder doesn't have content")
	// ErrQueueEnqueue marks a record that was stored but whose
	// post-processing job could not be handed to the broker.
	ErrQueueEnqueue = errors.New("post-processing job not enqueued")
)

type parentError struct{ msg string }

func (e *parentError) Error() string { return e.msg }
func (e *parentError) Unwrap() error { return ErrParentNotFound }

// ValidationError reports malformed input on one field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(field, msg string) error { return &ValidationError{Field: field, Message: msg} }
