package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrExpired           = errors.New("expired")
	ErrForbidden         = errors.New("forbidden")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrLimitReached      = errors.New("monthly request limit reached")
	ErrNotConfigured     = errors.New("not configured")
)

type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError carries every field that failed, not just the first.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid input"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Path+": "+f.Message)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func NewValidationError(path, msg string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Path: path, Message: msg}}}
}
