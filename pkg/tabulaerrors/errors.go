// Package tabulaerrors provides structured error handling for tabula with
// error categorization, key-value context and stack capture.
//
// # Overview
//
// Every fallible operation in tabula returns an *Error (or wraps a backend
// error in one). Callers branch on the category with IsType:
//
//	df, err := columnar.FromRows(rows)
//	if tabulaerrors.IsType(err, tabulaerrors.ErrorTypeEmptyInput) {
//	    // nothing to load
//	}
//
// Backend errors coming from a database driver are never reinterpreted: they
// are wrapped with ErrorTypeQuery or ErrorTypeConnection and remain reachable
// through errors.Is / errors.As.
//
// # Thread Safety
//
// Error instances are not thread-safe for modification. Call WithDetail
// before sharing an error across goroutines.
package tabulaerrors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error.
type ErrorType string

const (
	// ErrorTypeEmptyInput is returned when zero rows are supplied to a table constructor
	ErrorTypeEmptyInput ErrorType = "empty_input"
	// ErrorTypeOutOfBounds is returned for a row position at or past the table height
	ErrorTypeOutOfBounds ErrorType = "out_of_bounds"
	// ErrorTypeIndexNotFound is returned when an identity value is not in the index
	ErrorTypeIndexNotFound ErrorType = "index_not_found"
	// ErrorTypeLengthMismatch is returned when rows or columns disagree in length
	ErrorTypeLengthMismatch ErrorType = "length_mismatch"
	// ErrorTypeConnectionExists is returned by Connect on a connected executor
	ErrorTypeConnectionExists ErrorType = "connection_exists"
	// ErrorTypeNoConnection is returned by every executor operation before Connect
	ErrorTypeNoConnection ErrorType = "no_connection"
	// ErrorTypeTableExists is returned by the fail-if-exists save strategy
	ErrorTypeTableExists ErrorType = "table_exists"
	// ErrorTypeTypeMismatch is returned when a value is not of the expected kind
	ErrorTypeTypeMismatch ErrorType = "type_mismatch"
	// ErrorTypeUnsupportedIndex is returned when a value kind has no index type
	ErrorTypeUnsupportedIndex ErrorType = "unsupported_index_type"
	// ErrorTypeConstraintParse is returned for an unrecognized constraint keyword
	ErrorTypeConstraintParse ErrorType = "constraint_parse"
	// ErrorTypeValidation represents malformed caller input
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeCapability represents a feature a dialect does not support
	ErrorTypeCapability ErrorType = "capability"
	// ErrorTypeConnection represents connection errors
	ErrorTypeConnection ErrorType = "connection"
	// ErrorTypeQuery represents query execution errors
	ErrorTypeQuery ErrorType = "query"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeInternal represents internal errors
	ErrorTypeInternal ErrorType = "internal"
)

// Error represents a structured error with context.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack.
type StackFrame struct {
	Function string // Fully qualified function name
	File     string // Source file path
	Line     int    // Line number in source file
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error. It can be chained.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message.
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf is New with a format string.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context. If err is already an
// *Error its stack is preserved. Returns nil if err is nil.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// EmptyInput reports that a constructor received no rows.
func EmptyInput() *Error {
	return New(ErrorTypeEmptyInput, "cannot build a table from empty input")
}

// OutOfBounds reports an invalid row position.
func OutOfBounds(index, length int) *Error {
	return Newf(ErrorTypeOutOfBounds, "index %d out of bounds for length %d", index, length).
		WithDetail("index", index).
		WithDetail("length", length)
}

// IndexNotFound reports an identity value missing from the index.
func IndexNotFound(identity fmt.Stringer) *Error {
	return Newf(ErrorTypeIndexNotFound, "index value %s not found", identity.String()).
		WithDetail("identity", identity.String())
}

// TypeMismatch reports a value of the wrong kind.
func TypeMismatch(expected, actual fmt.Stringer) *Error {
	return Newf(ErrorTypeTypeMismatch, "expected %s, got %s", expected.String(), actual.String()).
		WithDetail("expected", expected.String()).
		WithDetail("actual", actual.String())
}

// IsRetryable returns true for connection errors. Everything else in tabula
// is deterministic and retrying would fail the same way.
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == ErrorTypeConnection
}

// IsType checks if the outermost *Error in err's chain has the given type.
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// captureStack captures the current call stack, skipping skip frames.
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
