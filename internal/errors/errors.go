// Package errors defines the error kinds the allocation core reports.
// Every failed operation surfaces as exactly one of these kinds; callers
// map them to transport codes in one place.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ValidationError reports malformed input or a referenced entity that does
// not exist in a request payload.
type ValidationError struct {
	Msg string
	Err error
}

func (e ValidationError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

// NotFoundError reports that the entity addressed by the operation itself
// (request id, session id, scanned token) does not exist.
type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

// ConflictError reports a failed status precondition: slot not available,
// request not pending, session not active, duplicate pending request.
type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

// DependencyError reports that an external collaborator failed or returned
// no usable data (a missing rate record, most importantly). The operation
// aborts; the core never substitutes a default value.
type DependencyError struct {
	Dependency string
	Msg        string
	Err        error
}

func (e DependencyError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Dependency, e.Msg)
	}
	return fmt.Sprintf("%s unavailable", e.Dependency)
}

func (e DependencyError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var target ValidationError
	return stderrors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return stderrors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return stderrors.As(err, &target)
}

func IsDependency(err error) bool {
	var target DependencyError
	return stderrors.As(err, &target)
}

// HTTPStatus maps an error to the status code the API reports for it.
func HTTPStatus(err error) int {
	switch {
	case IsValidation(err):
		return http.StatusBadRequest
	case IsNotFound(err):
		return http.StatusNotFound
	case IsConflict(err):
		return http.StatusConflict
	case IsDependency(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
