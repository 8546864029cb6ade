package domain

import "fmt"

// AppError is the base domain error type.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Standard domain error constructors.

// ErrState reports an action that is structurally inapplicable to the
// current phase or state (empty stash, non-offered card, wrong phase).
func ErrState(msg string) *AppError {
	return &AppError{Code: "STATE_ERROR", Message: msg, Status: 409}
}

// ErrAuthorization reports an acting player who lacks the right to
// perform this action now (wrong turn, not host, action already spent).
func ErrAuthorization(msg string) *AppError {
	return &AppError{Code: "AUTHORIZATION_ERROR", Message: msg, Status: 403}
}

// ErrDecoding reports a malformed or untyped inbound message.
func ErrDecoding(msg string, cause error) *AppError {
	return &AppError{Code: "DECODING_ERROR", Message: msg, Status: 400, Cause: cause}
}

// ErrDispatch reports an event discriminator with no registered handler.
func ErrDispatch(eventType string) *AppError {
	return &AppError{Code: "DISPATCH_ERROR", Message: fmt.Sprintf("no handler registered for event type %q", eventType), Status: 400}
}

func ErrNotFound(entity string, id any) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: fmt.Sprintf("%s %v not found", entity, id), Status: 404}
}

func ErrConflict(msg string) *AppError {
	return &AppError{Code: "CONFLICT", Message: msg, Status: 409}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Message: msg, Status: 400}
}

func ErrRateLimited(msg string) *AppError {
	return &AppError{Code: "RATE_LIMITED", Message: msg, Status: 429}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: msg, Status: 500, Cause: cause}
}
