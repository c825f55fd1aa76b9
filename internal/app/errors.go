package app

import (
	"errors"

	"github.com/evanschultz/tally/internal/domain"
)

// ErrNotFound and related errors classify service failures for transports.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidInput    = errors.New("invalid input")
	ErrConfirmMismatch = errors.New("confirmation mismatch")
)

// Error pairs a failure class with the message shown to API callers.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

// Error returns the caller-facing message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes both the failure class and the underlying cause to errors.Is.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// newError builds one classified error.
func newError(kind error, message string, cause error) error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Messages surfaced to API callers.
const (
	msgInvalidProjectName = `Project name can't contain / \ : * ? " < > | and can't be empty.`
	msgInvalidBacklogName = "Backlog name must be one word with letters, numbers, _ or -."
	msgInvalidTodoName    = "To do name must be one word with letters, numbers, _ or -."
	msgProjectExists      = "Project already exists."
	msgProjectNotFound    = "Project not found."
	msgConfirmMismatch    = "Project name does not match confirmation."
	msgBacklogUsed        = "Backlog name already used."
	msgBacklogNotFree     = "Only free backlogs can be removed."
	msgSelectBacklog      = "Select at least one backlog."
	msgBacklogsTaken      = "Some backlogs are not available."
	msgProgressRequired   = "Backlog and progress are required."
	msgProgressNotNumber  = "Progress must be a number."
	msgTodoNotFound       = "To do not found."
	msgProcessNotFound    = "Backlog not found in this to do."
)

// classifyDomainError maps domain rule violations onto service errors.
func classifyDomainError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrInvalidProjectName):
		return newError(ErrInvalidInput, msgInvalidProjectName, err)
	case errors.Is(err, domain.ErrInvalidBacklogName):
		return newError(ErrInvalidInput, msgInvalidBacklogName, err)
	case errors.Is(err, domain.ErrInvalidTodoName):
		return newError(ErrInvalidInput, msgInvalidTodoName, err)
	case errors.Is(err, domain.ErrBacklogInUse):
		return newError(ErrConflict, msgBacklogUsed, err)
	case errors.Is(err, domain.ErrBacklogNotFree):
		return newError(ErrInvalidInput, msgBacklogNotFree, err)
	case errors.Is(err, domain.ErrNoBacklogsSelected):
		return newError(ErrInvalidInput, msgSelectBacklog, err)
	case errors.Is(err, domain.ErrBacklogsUnavailable):
		return newError(ErrInvalidInput, msgBacklogsTaken, err)
	case errors.Is(err, domain.ErrTodoNotFound):
		return newError(ErrNotFound, msgTodoNotFound, err)
	case errors.Is(err, domain.ErrProcessNotFound):
		return newError(ErrNotFound, msgProcessNotFound, err)
	default:
		return err
	}
}
