package apperrors

import (
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrInvalidFeed   ErrorType = "INVALID_FEED"
	ErrConfiguration ErrorType = "CONFIGURATION_ERROR"
	ErrUpstream      ErrorType = "UPSTREAM_ERROR"
	ErrNotFound      ErrorType = "NOT_FOUND"
	ErrInternal      ErrorType = "INTERNAL_ERROR"
)

// AppError is the standard error struct for the application
type AppError struct {
	Type       ErrorType `json:"code"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
	HTTPStatus int       `json:"-"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(errType ErrorType, msg string, cause error) *AppError {
	return &AppError{
		Type:       errType,
		Message:    msg,
		Cause:      cause,
		HTTPStatus: mapTypeToStatus(errType),
		Suggestion: mapTypeToSuggestion(errType),
	}
}

// NewInvalidFeed reports an unknown venue name at registration time.
func NewInvalidFeed(venue string, cause error) *AppError {
	return New(ErrInvalidFeed, fmt.Sprintf("invalid feed %q", venue), cause)
}

func NewConfiguration(msg string) *AppError {
	return New(ErrConfiguration, msg, nil)
}

func NewNotFound(msg string) *AppError {
	return New(ErrNotFound, msg, nil)
}

func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return New(ErrInternal, err.Error(), err)
}

func mapTypeToStatus(t ErrorType) int {
	switch t {
	case ErrInvalidFeed:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func mapTypeToSuggestion(t ErrorType) string {
	switch t {
	case ErrInvalidFeed:
		return "Check the venue name against the registry."
	case ErrConfiguration:
		return "Register at least one feed before running."
	case ErrUpstream:
		return "Check exchange connectivity."
	default:
		return ""
	}
}
