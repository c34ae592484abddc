// internal/app/system/apperr/apperr.go

// Package apperr defines the error taxonomy shared by stores, the
// membership coordinator, and HTTP handlers. Handlers map these types
// onto status codes in one place (respond.Error); everything below the
// handler layer returns them unwrapped.
package apperr

import (
	"errors"
	"fmt"
)

// NotFound means a referenced entity does not exist. Maps to 404.
type NotFound struct {
	Resource string
	ID       string
}

func (e *NotFound) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Forbidden means the acting user may not perform the operation,
// typically because they are not a member of the target community.
// Maps to 403.
type Forbidden struct {
	Reason string
}

func (e *Forbidden) Error() string { return e.Reason }

// Validation means the request body is missing or malformed. Maps to 400.
type Validation struct {
	Reason string
}

func (e *Validation) Error() string { return e.Reason }

// Conflict means a store-level transaction failed to commit and the
// operation may be retried. Maps to 500 with a retriable message.
type Conflict struct {
	Err error
}

func (e *Conflict) Error() string { return "transaction conflict: " + e.Err.Error() }
func (e *Conflict) Unwrap() error { return e.Err }

// Dependency means an external collaborator (search index,
// recommendation service, blob store) failed. Whether it fails the
// request depends on the call site; community index writes swallow it.
type Dependency struct {
	Service string
	Err     error
}

func (e *Dependency) Error() string { return e.Service + ": " + e.Err.Error() }
func (e *Dependency) Unwrap() error { return e.Err }

// NotFoundf builds a NotFound for the given resource and id.
func NotFoundf(resource, id string) *NotFound {
	return &NotFound{Resource: resource, ID: id}
}

// Forbiddenf builds a Forbidden with a formatted reason.
func Forbiddenf(format string, args ...any) *Forbidden {
	return &Forbidden{Reason: fmt.Sprintf(format, args...)}
}

// Validationf builds a Validation with a formatted reason.
func Validationf(format string, args ...any) *Validation {
	return &Validation{Reason: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is (or wraps) a NotFound.
func IsNotFound(err error) bool {
	var e *NotFound
	return errors.As(err, &e)
}

// IsForbidden reports whether err is (or wraps) a Forbidden.
func IsForbidden(err error) bool {
	var e *Forbidden
	return errors.As(err, &e)
}

// IsValidation reports whether err is (or wraps) a Validation.
func IsValidation(err error) bool {
	var e *Validation
	return errors.As(err, &e)
}
