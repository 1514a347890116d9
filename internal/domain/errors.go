package domain

import "errors"

// Error kinds. Services wrap them in *Error so handlers can map a kind to a status.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a categorized, user-facing failure.
type Error struct {
	Kind    error
	Message string
	Fields  []FieldError
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Validation returns an ErrValidation with msg and optional field details.
func Validation(msg string, fields ...FieldError) error {
	return &Error{Kind: ErrValidation, Message: msg, Fields: fields}
}

// Unauthenticated returns an ErrUnauthenticated with msg.
func Unauthenticated(msg string) error {
	return &Error{Kind: ErrUnauthenticated, Message: msg}
}

// Forbidden returns an ErrForbidden with msg.
func Forbidden(msg string) error {
	return &Error{Kind: ErrForbidden, Message: msg}
}

// NotFound returns an ErrNotFound with msg.
func NotFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

// Conflict returns an ErrConflict with msg.
func Conflict(msg string) error {
	return &Error{Kind: ErrConflict, Message: msg}
}
