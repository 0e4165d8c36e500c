package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/kanbn/pkg/domain/board"
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

// MapError converts board errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var colErr *board.UnknownColumnError
	if errors.As(err, &colErr) {
		return NewCLIError(
			fmt.Sprintf("column %q does not exist", colErr.Column),
			"Run 'kanbn status' to list columns or 'kanbn column add' to create one",
			err,
		)
	}

	var collision *board.CollisionError
	if errors.As(err, &collision) {
		return NewCLIError(
			fmt.Sprintf("a task with id %q already exists", collision.ID),
			"Choose a different name; ids are derived from names",
			err,
		)
	}

	var mismatch *board.SetMismatchError
	if errors.As(err, &mismatch) {
		var details []string
		if len(mismatch.Missing) > 0 {
			details = append(details, "missing: "+strings.Join(mismatch.Missing, ", "))
		}
		if len(mismatch.Unexpected) > 0 {
			details = append(details, "unexpected: "+strings.Join(mismatch.Unexpected, ", "))
		}
		if len(mismatch.Duplicates) > 0 {
			details = append(details, "duplicated: "+strings.Join(mismatch.Duplicates, ", "))
		}
		return NewCLIError(
			fmt.Sprintf("new order for %q must list exactly the column's tasks (%s)", mismatch.Column, strings.Join(details, "; ")),
			"Run 'kanbn status' to see the column's current tasks",
			err,
		)
	}

	switch board.KindOf(err) {
	case board.KindNotFound:
		return NewCLIError(err.Error(), "Run 'kanbn init' to create a board, or 'kanbn task list' to see tasks", err)
	case board.KindAlreadyExists:
		return NewCLIError(err.Error(), "", err)
	case board.KindInvalidInput:
		return NewCLIError(err.Error(), "Run the command with --help for valid input", err)
	}
	return err
}
