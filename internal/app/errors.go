package app

import (
	"fmt"
	"net/http"

	"docboard/api/internal/dashboard"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func validationError(message string) *DomainError {
	return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", message, nil)
}

func forbidden() *DomainError {
	return domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
}

// documentNotFound carries the not-found view so clients can render it as is.
func documentNotFound(authenticated bool) *DomainError {
	view := dashboard.NewNotFoundView(authenticated)
	return domainError(http.StatusNotFound, "DOCUMENT_NOT_FOUND", view.Message, view)
}
