package services

import (
	"fmt"
)

// ErrorType represents the type of error
type ErrorType int

const (
	ErrTypeBadRequest ErrorType = iota
	ErrTypeUnauthorized
	ErrTypeForbidden
	ErrTypeNotFound
	ErrTypeInternal
)

// ServiceError is a standardized error interface for all services. The HTTP
// layer maps Type to a status code; Message is safe to show callers, Err is
// for logs only.
type ServiceError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string) *ServiceError {
	return &ServiceError{
		Type:    ErrTypeBadRequest,
		Message: message,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *ServiceError {
	return &ServiceError{
		Type:    ErrTypeUnauthorized,
		Message: message,
	}
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(message string) *ServiceError {
	return &ServiceError{
		Type:    ErrTypeForbidden,
		Message: message,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *ServiceError {
	return &ServiceError{
		Type:    ErrTypeNotFound,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *ServiceError {
	return &ServiceError{
		Type:    ErrTypeInternal,
		Message: message,
		Err:     err,
	}
}
