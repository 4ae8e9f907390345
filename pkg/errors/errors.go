// Package errors provides custom error types for the nodeatlas system.
// These errors enable programmatic error checking throughout the
// catalog, store, and ingestion layers.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is and As re-export the standard library matchers so callers need a
// single errors import.
var (
	Is = errors.Is
	As = errors.As
)

// Common sentinel errors.
var (
	// ErrNotFound indicates that a requested resource was not found.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a resource already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAPIKeyRequired indicates that an API key is required but not provided.
	ErrAPIKeyRequired = errors.New("API key required")

	// ErrSourceUnavailable indicates that an ingestion origin is temporarily unavailable.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrRateLimited indicates that a remote rate limit has been exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = errors.New("operation canceled")
)

// NotFoundError represents an error when a resource is not found.
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// APIError represents an error from a remote source API.
type APIError struct {
	Source     string
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Source, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Source, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *APIError) Is(target error) bool {
	if e.StatusCode == 429 {
		return target == ErrRateLimited
	}
	if e.StatusCode >= 500 {
		return target == ErrSourceUnavailable
	}
	return false
}

// NewAPIError creates a new APIError.
func NewAPIError(source string, statusCode int, message string) *APIError {
	return &APIError{Source: source, StatusCode: statusCode, Message: message}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ParseError represents an error when parsing data formats.
type ParseError struct {
	Format  string // "json", "yaml", etc.
	File    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IOError represents an error during I/O operations.
type IOError struct {
	Operation string // "read", "write", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *IOError) Unwrap() error {
	return e.Err
}

// ResourceError represents an error during resource operations.
type ResourceError struct {
	Operation string // "load", "save", "upsert", "build"
	Resource  string // "catalog", "record", "detail", "workflow"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// Helper functions for error checking.

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsRateLimited checks if an error is a rate limit error.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// Helper wrapping functions for common patterns.

// WrapIO wraps an error as an IOError.
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Message: err.Error(), Err: err}
}

// WrapParse wraps an error as a ParseError.
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, File: file, Message: err.Error(), Err: err}
}

// WrapResource wraps an error as a ResourceError.
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return &ResourceError{Operation: operation, Resource: resource, ID: id, Message: err.Error(), Err: err}
}

// WrapAPI wraps an error as an APIError.
func WrapAPI(source string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &APIError{Source: source, StatusCode: statusCode, Message: err.Error(), Err: err}
}
