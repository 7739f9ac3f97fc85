package services

import "errors"

// ErrInvalidCredentials is returned for an unknown email and for a wrong password alike.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ValidationError is a client mistake whose message is safe to show.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(msg string, err error) error {
	return &ValidationError{Message: msg, Err: err}
}
