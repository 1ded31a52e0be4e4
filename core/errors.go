package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}

// unavailable marks errors caused by a backend (database, cache) that cannot be reached.
type unavailable struct {
	err error
}

func NewUnavailableError(err error) error {
	return &unavailable{err: err}
}

func (u unavailable) Error() string {
	if u.err == nil {
		return "backend unavailable"
	}
	return "backend unavailable: " + u.err.Error()
}

func (u unavailable) Unwrap() error { return u.err }

func IsUnavailable(err error) bool {
	_, ok := errors.Cause(err).(*unavailable)
	return ok
}

// notFound marks lookups of objects that do not exist (or are out of the caller's reach).
type notFound struct {
	message string
}

func NewNotFoundError(msg string) error {
	return &notFound{message: msg}
}

func (nf notFound) Error() string {
	return nf.message
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*notFound)
	return ok
}
