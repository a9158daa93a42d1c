package datascope

import (
	"errors"
	"fmt"
	"strings"
)

// Standard error messages and error creation functions for consistency
var (
	// ErrEmptyInput indicates that the content is empty or only white space
	ErrEmptyInput = errors.New("datascope: empty content")

	// ErrNoValidRows indicates that every row of the content is blank
	ErrNoValidRows = errors.New("datascope: no valid rows")

	// ErrDelimiterMismatch indicates that re-parsing with a new delimiter yields no valid rows
	ErrDelimiterMismatch = errors.New("datascope: delimiter does not match content")

	// ErrInvalidDelimiter indicates a delimiter outside the supported set
	ErrInvalidDelimiter = errors.New("datascope: invalid delimiter")

	// ErrNoFileLoaded indicates an operation on a session without a dataset
	ErrNoFileLoaded = errors.New("datascope: no file loaded")

	// ErrPageOutOfRange indicates a page index outside the pagination plan
	ErrPageOutOfRange = errors.New("datascope: page index out of range")

	// ErrColumnNotFound indicates a column name missing from the header
	ErrColumnNotFound = errors.New("datascope: column not found")

	// ErrNoValueColumns indicates a chart request without value columns
	ErrNoValueColumns = errors.New("datascope: no value columns selected")

	// ErrUnsupportedFormat indicates an unsupported file format
	ErrUnsupportedFormat = errors.New("datascope: unsupported file format")

	// ErrMemoryLimit indicates memory limit exceeded
	ErrMemoryLimit = errors.New("datascope: memory limit exceeded")

	// ErrCanceled indicates context was cancelled
	ErrCanceled = errors.New("datascope: operation canceled")
)

// ParseError is returned by the tokenizer and the range-bounded parser.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ErrorContext provides context for where an error occurred
type ErrorContext struct {
	Operation string
	FilePath  string
	Page      int
	Details   string
	hasPage   bool
}

// NewErrorContext creates a new error context
func NewErrorContext(operation, filePath string) *ErrorContext {
	return &ErrorContext{
		Operation: operation,
		FilePath:  filePath,
	}
}

// WithPage adds page context to the error
func (ec *ErrorContext) WithPage(pageIndex int) *ErrorContext {
	ec.Page = pageIndex
	ec.hasPage = true
	return ec
}

// WithDetails adds details to the error context
func (ec *ErrorContext) WithDetails(details string) *ErrorContext {
	ec.Details = details
	return ec
}

// Error creates a formatted error with context
func (ec *ErrorContext) Error(baseErr error) error {
	var parts []string
	parts = append(parts, fmt.Sprintf("datascope: %s failed", ec.Operation))

	if ec.FilePath != "" {
		parts = append(parts, "file: "+ec.FilePath)
	}

	if ec.hasPage {
		parts = append(parts, fmt.Sprintf("page: %d", ec.Page))
	}

	if ec.Details != "" {
		parts = append(parts, "details: "+ec.Details)
	}

	context := strings.Join(parts, ", ")
	if baseErr != nil {
		return fmt.Errorf("%s: %w", context, baseErr)
	}
	return fmt.Errorf("%s", context)
}
