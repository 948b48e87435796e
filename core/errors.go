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
		return ""
	}
	return err.Err.Error()
}

// StoreError is returned by services when the data store failed for any reason
// other than a missing relation/column.
type StoreError struct {
	Op  string
	Err error
}

func NewStoreError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

func (err StoreError) Error() string {
	if err.Err == nil {
		return err.Op
	}
	return err.Op + ": " + err.Err.Error()
}

func (err StoreError) Cause() error { return err.Err }

// SchemaMissingError marks a data store error caused by a table or column that does not exist yet
// (i.e. migrations have not been applied). Callers degrade to empty results.
type SchemaMissingError struct {
	Err error
}

func NewSchemaMissingError(err error) error {
	return &SchemaMissingError{Err: err}
}

func (err SchemaMissingError) Error() string {
	if err.Err == nil {
		return "schema missing"
	}
	return "schema missing: " + err.Err.Error()
}

// IsSchemaMissing reports whether the root cause of err is a *SchemaMissingError.
func IsSchemaMissing(err error) bool {
	_, ok := errors.Cause(err).(*SchemaMissingError)
	return ok
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
