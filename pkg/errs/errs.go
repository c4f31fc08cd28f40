// Package errs defines the error taxonomy shared across the workflow
// engine: validation, driver, action, repository, serialization,
// credential, workflow and config failures. Callers branch on kind with
// errors.As/errors.Is, never by matching error text.
package errs

import "fmt"

// ValidationError reports a malformed action, config value, or name.
// It is never wrapped into another kind.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DriverError reports a failure from a BrowserDriver operation.
type DriverError struct {
	Op      string
	Cause   error
	Message string
}

func (e *DriverError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("driver: %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("driver: %s: %s", e.Op, e.Message)
}

func (e *DriverError) Unwrap() error { return e.Cause }

// ActionError wraps a failure raised while executing a single action.
type ActionError struct {
	ActionName string
	ActionType string
	Cause      error
}

func (e *ActionError) Error() string {
	name := e.ActionName
	if name == "" {
		name = "(unnamed)"
	}
	return fmt.Sprintf("action %q (%s): %v", name, e.ActionType, e.Cause)
}

func (e *ActionError) Unwrap() error { return e.Cause }

// RepositoryError reports an I/O, parse, or constraint failure at the
// persistence layer. NotFound conditions are never reported by this
// error: they are a boolean/nil return, or ErrNotFound below where an
// API must return a value (Load, LoadTemplate, GetMetadata).
type RepositoryError struct {
	Op    string
	Cause error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository: %s: %v", e.Op, e.Cause)
}

func (e *RepositoryError) Unwrap() error { return e.Cause }

// ErrNotFound is returned by Load-style operations (Load, LoadTemplate,
// GetMetadata) when the named item is absent, and can be
// wrapped/compared with errors.Is.
var ErrNotFound = fmt.Errorf("not found")

// ErrAlreadyExists is returned when a Create-style operation finds a
// name already taken.
var ErrAlreadyExists = fmt.Errorf("already exists")

// SerializationError reports a JSON or schema-level decode failure for
// stored data.
type SerializationError struct {
	Op    string
	Cause error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization: %s: %v", e.Op, e.Cause)
}

func (e *SerializationError) Unwrap() error { return e.Cause }

// CredentialError reports a missing credential, a verification failure,
// or a hashing failure.
type CredentialError struct {
	Name    string
	Message string
	Cause   error
}

func (e *CredentialError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("credential %q: %s: %v", e.Name, e.Message, e.Cause)
	}
	return fmt.Sprintf("credential %q: %s", e.Name, e.Message)
}

func (e *CredentialError) Unwrap() error { return e.Cause }

// WorkflowError reports a top-level run failure, including the terminal
// Stopped variant produced by cancellation.
type WorkflowError struct {
	Workflow string
	Stopped  bool
	Cause    error
}

func (e *WorkflowError) Error() string {
	if e.Stopped {
		return fmt.Sprintf("workflow %q: stopped by request", e.Workflow)
	}
	return fmt.Sprintf("workflow %q: %v", e.Workflow, e.Cause)
}

func (e *WorkflowError) Unwrap() error { return e.Cause }

// ConfigError reports an invalid configuration value at startup or
// reload.
type ConfigError struct {
	Key     string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %q: %s", e.Key, e.Message)
}
