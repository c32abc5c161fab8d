package app

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the targeted resource does not exist.
	// Existence is checked before authorization, so it wins over ErrForbidden.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the requester is neither owner nor admin.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError reports missing or malformed caller input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError.
func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
