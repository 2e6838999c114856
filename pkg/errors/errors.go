// Package errors provides custom error types for the caremap system.
// These errors let callers tell apart failures that skip a single source,
// failures that only null out a value, and failures that abort a whole run.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the caremap system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoMapping indicates that a source has no entry in the field-mapping table
	ErrNoMapping = errors.New("no mapping for source")

	// ErrParse indicates that a value could not be coerced to its declared type
	ErrParse = errors.New("parse failure")

	// ErrSink indicates that the sink rejected the batch
	ErrSink = errors.New("sink write failed")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigurationError represents a problem with the field-mapping or hook
// configuration. When raised for a single source, only that source is skipped.
type ConfigurationError struct {
	Source  string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("configuration error for source %s: %s", e.Source, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(source, message string, err error) *ConfigurationError {
	return &ConfigurationError{
		Source:  source,
		Message: message,
		Err:     err,
	}
}

// NewNoMappingError creates the ConfigurationError raised when the mapping
// table has no entry for a source.
func NewNoMappingError(source string) *ConfigurationError {
	return &ConfigurationError{
		Source:  source,
		Message: "no field mapping defined",
		Err:     ErrNoMapping,
	}
}

// ParseError represents a value that could not be coerced. It is never fatal:
// the offending value becomes null and the error is kept as a diagnostic.
type ParseError struct {
	Field   string
	Value   string
	Kind    string // "date", "integer", "boolean", "timestamp"
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("cannot parse %q as %s for field %s: %s", e.Value, e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("cannot parse %q as %s for field %s", e.Value, e.Kind, e.Field)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// NewParseError creates a new ParseError
func NewParseError(field, value, kind string, err error) *ParseError {
	pe := &ParseError{
		Field: field,
		Value: value,
		Kind:  kind,
		Err:   err,
	}
	if err != nil {
		pe.Message = err.Error()
	}
	return pe
}

// SinkError represents a failed write of the final batch. It is fatal for the run.
type SinkError struct {
	Sink    string // "postgres", "file", "writer"
	Target  string // table name, file path
	Records int
	Err     error
}

// Error implements the error interface
func (e *SinkError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s sink failed writing %d records to %s: %v", e.Sink, e.Records, e.Target, e.Err)
	}
	return fmt.Sprintf("%s sink failed writing %d records: %v", e.Sink, e.Records, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *SinkError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *SinkError) Is(target error) bool {
	return target == ErrSink
}

// NewSinkError creates a new SinkError
func NewSinkError(sink, target string, records int, err error) *SinkError {
	return &SinkError{
		Sink:    sink,
		Target:  target,
		Records: records,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "rename", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConfigurationError checks if an error is a configuration error
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsNoMapping checks if an error reports a source without a mapping
func IsNoMapping(err error) bool {
	return errors.Is(err, ErrNoMapping)
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	return errors.Is(err, ErrParse)
}

// IsSinkError checks if an error is a sink error
func IsSinkError(err error) bool {
	return errors.Is(err, ErrSink)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapSink wraps an error as a SinkError
func WrapSink(sink, target string, records int, err error) error {
	if err == nil {
		return nil
	}
	return NewSinkError(sink, target, records, err)
}

// WrapConfiguration wraps an error as a ConfigurationError
func WrapConfiguration(source string, err error) error {
	if err == nil {
		return nil
	}
	return NewConfigurationError(source, err.Error(), err)
}
