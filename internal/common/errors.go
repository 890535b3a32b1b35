package common

import (
	"errors"
)

// ConfigurationError is returned at construction time when the configuration
// cannot produce a working setup. It is fatal to startup.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// NewConfigurationError creates a new ConfigurationError with the given message.
func NewConfigurationError(message string) *ConfigurationError {
	return &ConfigurationError{Message: message}
}

// ValidationError signals a problem with the caller's input that should be
// surfaced to the end user as is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a new ValidationError with the given message.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// InfrastructureError wraps a failure talking to the cluster, or a cluster
// state the caller cannot recover from.
type InfrastructureError struct {
	Message string
	Err     error
}

func (e *InfrastructureError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

// NewInfrastructureError creates a new InfrastructureError. err may be nil.
func NewInfrastructureError(message string, err error) *InfrastructureError {
	return &InfrastructureError{Message: message, Err: err}
}

// IsConfigurationError checks if any error in the chain is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsValidationError checks if any error in the chain is a ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsInfrastructureError checks if any error in the chain is an InfrastructureError.
func IsInfrastructureError(err error) bool {
	var target *InfrastructureError
	return errors.As(err, &target)
}
