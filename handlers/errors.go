package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"microloan/auth"
	"microloan/repository"
)

// ErrorKind classifies a failed request.
type ErrorKind string

const (
	KindInvalidInput    ErrorKind = "InvalidInput"
	KindUnauthenticated ErrorKind = "Unauthenticated"
	KindForbidden       ErrorKind = "Forbidden"
	KindNotFound        ErrorKind = "NotFound"
	KindConflict        ErrorKind = "Conflict"
	KindStoreFailure    ErrorKind = "StoreFailure"
	KindInternal        ErrorKind = "Internal"
)

// Status returns the HTTP status code for k.
func (k ErrorKind) Status() int {
	switch k {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type APIError struct {
	Kind    ErrorKind
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func InvalidInput(msg string) *APIError    { return &APIError{Kind: KindInvalidInput, Message: msg} }
func Unauthenticated(msg string) *APIError { return &APIError{Kind: KindUnauthenticated, Message: msg} }
func Forbidden(msg string) *APIError       { return &APIError{Kind: KindForbidden, Message: msg} }
func NotFound(msg string) *APIError        { return &APIError{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) *APIError        { return &APIError{Kind: KindConflict, Message: msg} }

type errorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorKind `json:"error"`
	Message string    `json:"message"`
}

// WriteError writes e as a JSON error body with the matching status code.
func WriteError(w http.ResponseWriter, e *APIError) {
	writeJSON(w, e.Kind.Status(), errorResponse{
		Success: false,
		Error:   e.Kind,
		Message: e.Message,
	})
}

// WriteDecision writes the error response for a denied policy decision.
func WriteDecision(w http.ResponseWriter, d auth.Decision) {
	if d.Effect == auth.DenyUnauthenticated {
		WriteError(w, Unauthenticated(d.Reason))
		return
	}
	WriteError(w, Forbidden(d.Reason))
}

func missingFields(fields ...string) *APIError {
	return InvalidInput("missing required field(s): " + strings.Join(fields, ", "))
}

// fail maps err to a response. Repository sentinels become client errors;
// anything else is logged and answered with a redacted StoreFailure.
func (a *App) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrInvalidID):
		WriteError(w, InvalidInput("invalid id"))
	case errors.Is(err, repository.ErrNotFound):
		WriteError(w, NotFound("resource not found"))
	case errors.Is(err, repository.ErrDuplicate):
		WriteError(w, Conflict("resource already exists"))
	default:
		a.log(r).WithError(err).WithField("op", op).Error("store operation failed")
		WriteError(w, &APIError{Kind: KindStoreFailure, Message: "internal storage error"})
	}
}
