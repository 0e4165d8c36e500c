package board

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors for board persistence.
var (
	// ErrNotFound indicates the board index or a task file does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a board, task or column already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnknownColumn indicates a reference to a column the board does not have.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrIdentifierCollision indicates two task names derive the same identifier.
	ErrIdentifierCollision = errors.New("identifier collision")

	// ErrSetMismatch indicates a reorder list is not a permutation of the column.
	ErrSetMismatch = errors.New("task set mismatch")

	// ErrEmptyIdentifier indicates a name derived an empty identifier.
	ErrEmptyIdentifier = errors.New("name derives an empty identifier")

	// ErrInvalidIdentifier indicates an identifier that cannot name a task file.
	ErrInvalidIdentifier = errors.New("invalid task identifier")

	// ErrInvalidInput indicates a malformed request, such as an empty name.
	ErrInvalidInput = errors.New("invalid input")
)

// ErrorKind classifies board errors for callers that report them.
type ErrorKind string

const (
	KindNotFound            ErrorKind = "NotFound"
	KindAlreadyExists       ErrorKind = "AlreadyExists"
	KindUnknownColumn       ErrorKind = "UnknownColumn"
	KindIdentifierCollision ErrorKind = "IdentifierCollision"
	KindSetMismatch         ErrorKind = "SetMismatch"
	KindInvalidInput        ErrorKind = "InvalidInput"
	KindInternal            ErrorKind = "Internal"
)

// KindOf maps err to its ErrorKind.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrIdentifierCollision):
		return KindIdentifierCollision
	case errors.Is(err, ErrAlreadyExists):
		return KindAlreadyExists
	case errors.Is(err, ErrUnknownColumn):
		return KindUnknownColumn
	case errors.Is(err, ErrSetMismatch):
		return KindSetMismatch
	case errors.Is(err, ErrEmptyIdentifier), errors.Is(err, ErrInvalidIdentifier), errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	}
	return KindInternal
}

// UnknownColumnError names the missing column.
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("column %q does not exist", e.Column)
}

// Is allows errors.Is to work with UnknownColumnError.
func (e *UnknownColumnError) Is(target error) bool {
	return target == ErrUnknownColumn
}

// CollisionError reports a name whose identifier is already taken.
type CollisionError struct {
	ID   string
	Name string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("task %q already exists (derived from %q)", e.ID, e.Name)
}

// Is allows errors.Is to work with CollisionError.
func (e *CollisionError) Is(target error) bool {
	return target == ErrIdentifierCollision || target == ErrAlreadyExists
}

// SetMismatchError lists the identifiers that make a reorder invalid.
type SetMismatchError struct {
	Column     string
	Missing    []string
	Unexpected []string
	Duplicates []string
}

func (e *SetMismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, "unexpected: "+strings.Join(e.Unexpected, ", "))
	}
	if len(e.Duplicates) > 0 {
		parts = append(parts, "duplicated: "+strings.Join(e.Duplicates, ", "))
	}
	return fmt.Sprintf("new order for column %q must contain exactly its current tasks (%s)", e.Column, strings.Join(parts, "; "))
}

// Is allows errors.Is to work with SetMismatchError.
func (e *SetMismatchError) Is(target error) bool {
	return target == ErrSetMismatch
}
