package apperrors

import (
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrNotFound          ErrorType = "NOT_FOUND"
	ErrValidation        ErrorType = "VALIDATION_FAILED"
	ErrIllegalTransition ErrorType = "ILLEGAL_TRANSITION"
	ErrUpstream          ErrorType = "UPSTREAM_ERROR"
	ErrAuthFailed        ErrorType = "AUTH_FAILED"
	ErrReadOnly          ErrorType = "READ_ONLY"
	ErrConflict          ErrorType = "CONFLICT"
	ErrInternal          ErrorType = "INTERNAL_ERROR"
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

func NewNotFound(msg string) *AppError {
	return New(ErrNotFound, msg, nil)
}

func NewValidation(msg string) *AppError {
	return New(ErrValidation, msg, nil)
}

func NewIllegalTransition(msg string) *AppError {
	return New(ErrIllegalTransition, msg, nil)
}

func NewUpstream(msg string, cause error) *AppError {
	return New(ErrUpstream, msg, cause)
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
	case ErrValidation:
		return http.StatusBadRequest
	case ErrAuthFailed:
		return http.StatusUnauthorized
	case ErrNotFound:
		return http.StatusNotFound
	case ErrIllegalTransition, ErrConflict:
		return http.StatusConflict
	case ErrReadOnly:
		return http.StatusForbidden
	case ErrUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func mapTypeToSuggestion(t ErrorType) string {
	switch t {
	case ErrIllegalTransition:
		return "Check the current status before updating."
	case ErrAuthFailed:
		return "Check the API key."
	case ErrUpstream:
		return "The trading-metrics or payment provider is unavailable, retry later."
	default:
		return ""
	}
}
