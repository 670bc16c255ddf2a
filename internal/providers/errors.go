package providers

import (
	"errors"
	"fmt"

	"opsconsole/internal/account/models"
)

// ProviderError wraps upstream failures with a normalized classification.
type ProviderError struct {
	Kind       models.FailureKind
	ProviderID models.Provider
	Op         string
	StatusCode int
	Message    string
	Underlying error
	// Reached is true when the request left the process and the upstream may
	// have acted on it. Dial failures and local validation leave it false.
	Reached   bool
	Retryable bool // Advisory only; nothing retries automatically
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("provider %s [%s]", e.ProviderID, e.Kind)
	if e.Op != "" {
		msg += " " + e.Op
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	msg += ": " + e.Message
	if e.Underlying != nil {
		msg += ": " + e.Underlying.Error()
	}
	return msg
}

// Unwrap supports error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// NewProviderError creates a new normalized provider error
func NewProviderError(kind models.FailureKind, providerID models.Provider, message string, underlying error) *ProviderError {
	return &ProviderError{
		Kind:       kind,
		ProviderID: providerID,
		Message:    message,
		Underlying: underlying,
		Retryable:  kind == models.FailureUpstreamTransient || kind == models.FailureUpstreamDown,
	}
}

// NewValidationError reports bad caller input detected before any upstream call.
func NewValidationError(providerID models.Provider, message string) *ProviderError {
	return NewProviderError(models.FailureValidation, providerID, message, nil)
}

// IsNotFound reports whether err means the record is absent upstream.
func IsNotFound(err error) bool {
	return Classify(err) == models.FailureNotFound
}

// ReachedUpstream reports whether the failed call got far enough that the
// upstream may have acted on it.
func ReachedUpstream(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Reached
	}
	return false
}

// ErrUnsupportedAction marks an action kind the adapter does not implement.
var ErrUnsupportedAction = errors.New("action not supported by provider")
