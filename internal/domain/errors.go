package domain

import (
	"errors"
	"fmt"
)

// Error types for domain-specific errors
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeDecode        ErrorType = "decode"
	ErrorTypeEmptyDocument ErrorType = "empty_document"
	ErrorTypeEncoding      ErrorType = "encoding"
	ErrorTypeNoInput       ErrorType = "no_input"
	ErrorTypeNoOutput      ErrorType = "no_output"
	ErrorTypeConfig        ErrorType = "config"
	ErrorTypeIO            ErrorType = "io"
)

// DomainError represents a domain-specific error with context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// IsType reports whether any DomainError in err's chain has the given type.
func IsType(err error, errType ErrorType) bool {
	var de *DomainError
	for err != nil {
		if !errors.As(err, &de) {
			return false
		}
		if de.Type == errType {
			return true
		}
		err = de.Err
	}
	return false
}

// TypeOf returns the type of the outermost DomainError in err's chain,
// or the empty string when there is none.
func TypeOf(err error) ErrorType {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type
	}
	return ""
}

// Common error constructors
func ValidationError(message string, err error) *DomainError {
	return NewError(ErrorTypeValidation, message, err)
}

// DecodeError marks an unreadable or corrupt PDF.
func DecodeError(message string, err error) *DomainError {
	return NewError(ErrorTypeDecode, message, err)
}

// EmptyDocumentError marks a document or page sequence with zero pages.
func EmptyDocumentError(message string, err error) *DomainError {
	return NewError(ErrorTypeEmptyDocument, message, err)
}

func EncodingError(message string, err error) *DomainError {
	return NewError(ErrorTypeEncoding, message, err)
}

func NoInputError(message string, err error) *DomainError {
	return NewError(ErrorTypeNoInput, message, err)
}

// NoOutputError marks a batch in which every document failed.
func NoOutputError(message string, err error) *DomainError {
	return NewError(ErrorTypeNoOutput, message, err)
}

func ConfigError(message string, err error) *DomainError {
	return NewError(ErrorTypeConfig, message, err)
}

func IOError(message string, err error) *DomainError {
	return NewError(ErrorTypeIO, message, err)
}
