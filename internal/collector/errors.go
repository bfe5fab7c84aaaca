package collector

import (
	"errors"
	"fmt"
)

// Sentinel errors for the collection pipeline
var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrItemParse         = errors.New("item parse failed")
	ErrSchemaViolation   = errors.New("raw table violates base schema")
	ErrExportWrite       = errors.New("export write failed")
	ErrUnknownSource     = errors.New("unknown source")
)

// ErrorCode classifies a collection error
type ErrorCode string

const (
	ErrCodeSourceUnavailable ErrorCode = "SOURCE_UNAVAILABLE"
	ErrCodeItemParse         ErrorCode = "ITEM_PARSE"
	ErrCodeSchemaViolation   ErrorCode = "SCHEMA_VIOLATION"
	ErrCodeExportWrite       ErrorCode = "EXPORT_WRITE"
)

// Error wraps a collection failure with its taxonomy code and the source
// it originated from.
type Error struct {
	Code       ErrorCode
	Source     string
	Message    string
	Underlying error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s [%s]: %s: %v", e.Code, e.Source, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Code, e.Source, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is matches either another *Error with the same code or the underlying error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	switch target {
	case ErrSourceUnavailable:
		return e.Code == ErrCodeSourceUnavailable
	case ErrItemParse:
		return e.Code == ErrCodeItemParse
	case ErrSchemaViolation:
		return e.Code == ErrCodeSchemaViolation
	case ErrExportWrite:
		return e.Code == ErrCodeExportWrite
	}
	return errors.Is(e.Underlying, target)
}

// NewError creates a classified collection error
func NewError(code ErrorCode, source, message string, err error) *Error {
	return &Error{
		Code:       code,
		Source:     source,
		Message:    message,
		Underlying: err,
	}
}
