package errors

import (
	"errors"
	"fmt"
)

var (
	ErrBusy            = errors.New("a scan submission is already in progress")
	ErrNoJob           = errors.New("no scan is being tracked")
	ErrNotTerminal     = errors.New("scan has not finished yet")
	ErrUnknownCategory = errors.New("unknown result category")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

// NetworkErrorMessage is shown when a request never produced a readable backend response.
const NetworkErrorMessage = "Network error occurred"

// ValidationError blocks an operation before any network call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// TransportError wraps a failure to reach the backend or to read its response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}

// BackendError is a well-formed failure response from the backend.
type BackendError struct {
	Op         string
	Message    string
	StatusCode int
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: backend reported failure (status %d)", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func NewBackendError(op, message string, statusCode int) *BackendError {
	return &BackendError{Op: op, Message: message, StatusCode: statusCode}
}

type ConfigError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value: %v): %s", e.Field, e.Value, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

func NewConfigError(field string, value interface{}, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// UserMessage returns the text to show a user for err. Validation and backend
// messages are shown as-is, transport failures get the generic network message
// and anything else falls back to fallback.
func UserMessage(err error, fallback string) string {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		if backendErr.Message != "" {
			return backendErr.Message
		}
		return fallback
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return NetworkErrorMessage
	}
	return fallback
}

func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

func IsTransport(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
