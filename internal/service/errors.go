package service

import (
	"errors"
	"fmt"
)

// ErrInvalidCredentials covers both the unknown-email and wrong-password
// login paths so the response never reveals which check failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError marks input that passed transport binding but failed a
// domain constraint. Handlers map it to a 400 with the message as-is.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
