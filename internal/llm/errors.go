package llm

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType classifies provider errors
type ErrorType string

const (
	ErrorTypeRateLimit          ErrorType = "rate_limit"          // 429 - too many requests
	ErrorTypeInsufficientCredit ErrorType = "insufficient_credit" // 402 - no balance
	ErrorTypeProviderDown       ErrorType = "provider_down"       // 502/503 - upstream issue
	ErrorTypeAuth               ErrorType = "auth"                // 401 - bad API key
	ErrorTypeModeration         ErrorType = "moderation"          // 403 - content flagged
	ErrorTypeUnknown            ErrorType = "unknown"             // Fallback
)

// ProviderError is a structured error returned by LLM clients
type ProviderError struct {
	Type       ErrorType      // Classification
	Provider   string         // "zai", "openrouter", "gemini"
	Code       string         // Raw error code ("429")
	Message    string         // Human-readable message
	ResetAt    *time.Time     // When limit resets (if known)
	RetryAfter *time.Duration // How long to wait (if known)
}

func (e *ProviderError) Error() string {
	if e.ResetAt != nil {
		return fmt.Sprintf("%s: %s (resets at %s)", e.Provider, e.Message, e.ResetAt.Format("15:04:05"))
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// IsProviderError checks if err is a ProviderError and returns it
func IsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// NewProviderError creates a new ProviderError with the given parameters
func NewProviderError(provider string, errType ErrorType, code, message string) *ProviderError {
	return &ProviderError{
		Type:     errType,
		Provider: provider,
		Code:     code,
		Message:  message,
	}
}

// ClassifyStatus maps an HTTP status code onto an ErrorType.
func ClassifyStatus(status int) ErrorType {
	switch {
	case status == 401:
		return ErrorTypeAuth
	case status == 402:
		return ErrorTypeInsufficientCredit
	case status == 403:
		return ErrorTypeModeration
	case status == 429:
		return ErrorTypeRateLimit
	case status >= 500:
		return ErrorTypeProviderDown
	default:
		return ErrorTypeUnknown
	}
}

// CollaboratorError reports that a planning, evaluation or recovery request
// could not produce a usable completion.
type CollaboratorError struct {
	Purpose Purpose
	Message string
	Err     error
}

func (e *CollaboratorError) Error() string {
	label := string(e.Purpose)
	if label == "" {
		label = "completion"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s collaborator: %s: %v", label, e.Message, e.Err)
	}
	return fmt.Sprintf("%s collaborator: %s", label, e.Message)
}

// Unwrap allows errors.Is/As to work through wrapped errors
func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// IsCollaboratorError checks if err is a CollaboratorError and returns it
func IsCollaboratorError(err error) (*CollaboratorError, bool) {
	var ce *CollaboratorError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
