package model

import (
	"errors"
	"fmt"
)

// ErrorKind is a stable, typed failure classification surfaced to callers.
type ErrorKind string

const (
	// KindInvalidInput covers empty topics, empty category sets,
	// non-positive counts, unusable syllabus text, and unknown subjects.
	KindInvalidInput ErrorKind = "INVALID_INPUT"
	// KindResourceExhausted means the requested count exceeds the safety cap.
	KindResourceExhausted ErrorKind = "RESOURCE_EXHAUSTED"
	// KindPersistenceFailure means the store rejected a write.
	KindPersistenceFailure ErrorKind = "PERSISTENCE_FAILURE"
	// KindCollaboratorFailure means a parser, OCR, or LLM collaborator failed.
	KindCollaboratorFailure ErrorKind = "COLLABORATOR_FAILURE"
	// KindNotFound means the referenced entity does not exist.
	KindNotFound ErrorKind = "NOT_FOUND"
)

// Error carries a kind alongside a short detail string.
type Error struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a typed error with a formatted detail.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// WrapError attaches a kind to an underlying error.
func WrapError(kind ErrorKind, err error, detail string) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

// KindOf extracts the error kind, or "" for untyped errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
