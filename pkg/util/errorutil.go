package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes surfaced by the lifecycle engine.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeNotAnEngineer     = "NOT_AN_ENGINEER"
	CodeNotAManager       = "NOT_A_MANAGER"
	CodeNotOwner          = "NOT_OWNER"
	CodeAlreadyAssigned   = "ALREADY_ASSIGNED"
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeNoCategory        = "NO_CATEGORY"
	CodeNoEngineers       = "NO_ENGINEERS"
	CodeConflict          = "CONFLICT"
	CodeInternal          = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound, details)
}

// NewInvalidTransition names the source state, target state and operation.
func NewInvalidTransition(from, to, operation string) error {
	return NewDomainError(CodeInvalidTransition,
		fmt.Sprintf("cannot move ticket from %s to %s via %s", from, to, operation),
		http.StatusConflict,
		map[string]any{"from": from, "to": to, "operation": operation})
}

func NewNotAnEngineer(userID int64) error {
	return NewDomainError(CodeNotAnEngineer, "user is not an engineer", http.StatusForbidden,
		map[string]any{"user_id": userID})
}

func NewNotAManager(userID int64) error {
	return NewDomainError(CodeNotAManager, "user is not a manager", http.StatusForbidden,
		map[string]any{"user_id": userID})
}

func NewNotOwner(message string) error {
	return NewDomainError(CodeNotOwner, message, http.StatusForbidden, nil)
}

func NewAlreadyAssigned(ticketID int64) error {
	return NewDomainError(CodeAlreadyAssigned, "ticket already assigned to another engineer",
		http.StatusConflict, map[string]any{"ticket_id": ticketID})
}

func NewNoCategory() error {
	return NewDomainError(CodeNoCategory, "could not determine issue category for ticket",
		http.StatusUnprocessableEntity, nil)
}

func NewNoEngineers() error {
	return NewDomainError(CodeNoEngineers, "no engineers available", http.StatusConflict, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsCode reports whether err is a DomainError with the given code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}

func MapError(err error) error {
	return ToDomainError(err)
}
