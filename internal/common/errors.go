// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Common application errors.
var (
	// Storage errors.
	ErrNotFound         = errors.New("not found")
	ErrStorageCorrupted = errors.New("stored value corrupted")

	// Pipeline errors.
	ErrSyncFailed       = errors.New("impact sync failed")
	ErrQuotaExhausted   = errors.New("guest scan quota exhausted")
	ErrNotAuthenticated = errors.New("not signed in")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ValidationError is raised for malformed input before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// InferenceError reports a failed round trip to the inference relay.
// Status is zero when the relay could not be reached at all.
type InferenceError struct {
	Err     error
	Payload map[string]any
	Message string
	Status  int
}

func (e *InferenceError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = "inference request failed"
	}
	if e.Status == 0 {
		return "inference relay unreachable: " + msg
	}
	return fmt.Sprintf("inference relay error (status %d): %s", e.Status, msg)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// UserMessage renders err as a short, actionable message for display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return capitalize(validationErr.Error())
	}

	var inferenceErr *InferenceError
	if errors.As(err, &inferenceErr) {
		if inferenceErr.Message != "" && inferenceErr.Status != 0 {
			return "The classifier returned an error: " + inferenceErr.Message
		}
		return "Could not reach the classifier. Check your connection and try again."
	}

	switch {
	case errors.Is(err, ErrQuotaExhausted):
		return "You have used all free scans for today. Sign in to keep scanning."
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out. Please try again."
	}

	return "Something went wrong: " + err.Error()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Truncate shortens an error body to at most n bytes plus "...", backing off
// to a rune boundary so the result stays valid UTF-8.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
