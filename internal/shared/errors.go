package shared

import "errors"

// Error classes. Domain errors unwrap to one of these so transport layers can map them.
var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness or replay conflict.
	ErrConflict = errors.New("conflict")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrRejected indicates well-formed input refused by a business rule.
	ErrRejected = errors.New("rejected")
)

// ClassError is a domain error carrying its class.
type ClassError struct {
	class error
	msg   string
}

// NewError builds a domain error message under class.
func NewError(class error, msg string) *ClassError {
	return &ClassError{class: class, msg: msg}
}

func (e *ClassError) Error() string { return e.msg }

// Unwrap exposes the class to errors.Is.
func (e *ClassError) Unwrap() error { return e.class }

// UserSafeMessage returns the message of classified errors and a generic text otherwise.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, class := range []error{ErrNotFound, ErrConflict, ErrValidation, ErrRejected} {
		if errors.Is(err, class) {
			return err.Error()
		}
	}
	return "internal error"
}
