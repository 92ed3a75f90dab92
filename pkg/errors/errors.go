// Package errors provides custom error types for the cvmap system.
// Every error a build run can produce maps onto one of a handful of kinds
// (configuration, missing file, malformed document, persistence) so that
// callers can check them with errors.Is regardless of how deeply they were
// wrapped.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is, As and Join are re-exported so callers need a single errors import.
var (
	Is   = errors.Is
	As   = errors.As
	Join = errors.Join
)

// Common sentinel errors for the cvmap system
var (
	// ErrConfig indicates a configuration or input error (missing directories, bad definitions)
	ErrConfig = errors.New("configuration error")

	// ErrMissingFile indicates that an expected source document does not exist
	ErrMissingFile = errors.New("missing file")

	// ErrMalformedDocument indicates a source document that is not valid JSON or lacks its collection key
	ErrMalformedDocument = errors.New("malformed document")

	// ErrPersistence indicates that the archive could not be written
	ErrPersistence = errors.New("persistence error")

	// ErrAlreadyExists indicates that a sibling with the same name already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")
)

// ConfigError represents a configuration or input error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// MissingFileError is returned when the source document for a collection type is absent.
type MissingFileError struct {
	CollectionType string
	Path           string
	Err            error
}

// Error implements the error interface
func (e *MissingFileError) Error() string {
	return fmt.Sprintf("missing source file %s for collection type %s", e.Path, e.CollectionType)
}

// Unwrap implements errors.Unwrap
func (e *MissingFileError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *MissingFileError) Is(target error) bool {
	return target == ErrMissingFile
}

// NewMissingFileError creates a new MissingFileError
func NewMissingFileError(collectionType, path string, err error) *MissingFileError {
	return &MissingFileError{
		CollectionType: collectionType,
		Path:           path,
		Err:            err,
	}
}

// DocumentError represents a source document that cannot be mapped to a collection.
type DocumentError struct {
	CollectionType string
	Path           string
	Message        string
	Err            error
}

// Error implements the error interface
func (e *DocumentError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("malformed document %s for collection type %s: %s", e.Path, e.CollectionType, e.Message)
	}
	return fmt.Sprintf("malformed document for collection type %s: %s", e.CollectionType, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DocumentError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *DocumentError) Is(target error) bool {
	return target == ErrMalformedDocument
}

// NewDocumentError creates a new DocumentError
func NewDocumentError(collectionType, path, message string, err error) *DocumentError {
	return &DocumentError{
		CollectionType: collectionType,
		Path:           path,
		Message:        message,
		Err:            err,
	}
}

// PersistenceError represents a failure of the archive writer
type PersistenceError struct {
	Operation string // "add", "save", "write"
	Target    string // authority name or archive path
	Err       error
}

// Error implements the error interface
func (e *PersistenceError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Target, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// NewPersistenceError creates a new PersistenceError
func NewPersistenceError(operation, target string, err error) *PersistenceError {
	return &PersistenceError{
		Operation: operation,
		Target:    target,
		Err:       err,
	}
}

// DuplicateError is returned when a sibling with the same name is registered twice.
type DuplicateError struct {
	Kind   string // "scope", "collection", "term", "authority"
	Name   string
	Parent string
}

// Error implements the error interface
func (e *DuplicateError) Error() string {
	if e.Parent != "" {
		return fmt.Sprintf("%s %s already exists in %s", e.Kind, e.Name, e.Parent)
	}
	return fmt.Sprintf("%s %s already exists", e.Kind, e.Name)
}

// Is implements errors.Is support
func (e *DuplicateError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
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

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "rename", "remove"
	Path      string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("IO error during %s: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// Helper functions for error checking

// IsConfig checks if an error is a configuration error
func IsConfig(err error) bool {
	return errors.Is(err, ErrConfig)
}

// IsMissingFile checks if an error is a missing source file error
func IsMissingFile(err error) bool {
	return errors.Is(err, ErrMissingFile)
}

// IsMalformedDocument checks if an error is a malformed document error
func IsMalformedDocument(err error) bool {
	return errors.Is(err, ErrMalformedDocument)
}

// IsPersistence checks if an error is a persistence error
func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Err: err}
}

// WrapPersistence wraps an error as a PersistenceError
func WrapPersistence(operation, target string, err error) error {
	if err == nil {
		return nil
	}
	return NewPersistenceError(operation, target, err)
}

// WrapConfig wraps an error as a ConfigError
func WrapConfig(component string, err error) error {
	if err == nil {
		return nil
	}
	return NewConfigError(component, err.Error(), err)
}
