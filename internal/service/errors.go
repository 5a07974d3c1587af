package service

import "fmt"

// Error codes mapped to HTTP statuses at the handler boundary.
const (
	CodeNotFound    = "NOT_FOUND"
	CodeValidation  = "VALIDATION_ERROR"
	CodePersistence = "PERSISTENCE_ERROR"
	CodeBadRequest  = "BAD_REQUEST"
)

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

// Violation is one field-level validation failure.
type Violation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func NewNotFound(message string) *BusinessError {
	return &BusinessError{
		Code:    CodeNotFound,
		Message: message,
	}
}

func NewValidationError(violations []Violation) *BusinessError {
	return &BusinessError{
		Code:    CodeValidation,
		Message: "Validation failed",
		Details: map[string]any{"violations": violations},
	}
}

func NewPersistenceError(message string, err error) *BusinessError {
	return &BusinessError{
		Code:    CodePersistence,
		Message: message,
		Err:     err,
	}
}

func NewBadRequest(message string, details map[string]any) *BusinessError {
	return &BusinessError{
		Code:    CodeBadRequest,
		Message: message,
		Details: details,
	}
}
