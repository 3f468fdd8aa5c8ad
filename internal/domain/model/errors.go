package model

import (
	"errors"
	"fmt"
)

// ErrEntryNotFound is returned by operations that require an existing entry.
// Plain lookups report absence as a nil entry instead.
var ErrEntryNotFound = errors.New("diary entry not found")

// StorageError reports a failure in the persistence layer. The write or read
// it describes must be assumed not to have happened.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// RenderError reports a failure while generating or writing a document.
type RenderError struct {
	Op  string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render: %s: %v", e.Op, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// ValidationError reports malformed input.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsStorage reports whether err is or wraps a *StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// IsRender reports whether err is or wraps a *RenderError.
func IsRender(err error) bool {
	var re *RenderError
	return errors.As(err, &re)
}
