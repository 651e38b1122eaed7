package journal

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDriver          = errors.New("invalid journal driver")
	ErrMissingDSN             = errors.New("journal dsn is required")
	ErrInvalidMaxOpenConns    = errors.New("max open connections must be >= 0")
	ErrMaxIdleExceedsMaxOpen  = errors.New("max idle connections cannot exceed max open connections")
	ErrInvalidTimeout         = errors.New("timeout must be positive")
	ErrInvalidConnMaxLifetime = errors.New("connection max lifetime must be >= 0")
	ErrJournalClosed          = errors.New("journal is closed")
	ErrInvalidLimit           = errors.New("invalid query limit")
)

// ErrorType categorises journal errors.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeConfiguration
	ErrorTypeConnection
	ErrorTypeQuery
	ErrorTypeSchema
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeConfiguration:
		return "configuration"
	case ErrorTypeConnection:
		return "connection"
	case ErrorTypeQuery:
		return "query"
	case ErrorTypeSchema:
		return "schema"
	default:
		return "unknown"
	}
}

// Error carries the failing operation and category of a journal error.
type Error struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(t ErrorType, operation, message string, cause error) *Error {
	return &Error{Type: t, Operation: operation, Message: message, Cause: cause}
}
