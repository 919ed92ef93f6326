package service

import "errors"

// Error kinds. Callers match them with errors.Is.
var (
	ErrValidation     = errors.New("validation error")
	ErrConflict       = errors.New("conflict")
	ErrAuthentication = errors.New("authentication error")
	ErrStorage        = errors.New("storage error")
)

// Error is a classified failure with a caller-facing message.
type Error struct {
	Kind error
	Msg  string
	Err  error // underlying cause, never shown to callers
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func validationError(msg string) error {
	return &Error{Kind: ErrValidation, Msg: msg}
}

func storageError(err error) error {
	return &Error{Kind: ErrStorage, Msg: "storage failure", Err: err}
}

// ErrInvalidCredentials is returned for both an unknown username and a wrong password.
var ErrInvalidCredentials error = &Error{Kind: ErrAuthentication, Msg: "invalid credentials"}

// ErrAuthRequired is returned when a call needs a bearer token and none was supplied.
var ErrAuthRequired error = &Error{Kind: ErrAuthentication, Msg: "authentication required"}
