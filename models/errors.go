package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Error codes for business-rule rejections. All of these are terminal,
// caller-visible outcomes: none are retried internally. Transient store
// failures keep their original error type and map to INTERNAL_ERROR.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeAuthorization     = "FORBIDDEN"
	CodeEntitlement       = "ENTITLEMENT_REQUIRED"
	CodeCapacity          = "CAPACITY_REACHED"
	CodeDuplicate         = "DUPLICATE"
	CodeConflict          = "CONFLICT"
	CodeRateLimited       = "RATE_LIMITED"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeClosed            = "CLOSED"
	CodeValidation        = "VALIDATION_ERROR"
	CodeInternal          = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
	// Details carries structured context (remaining cooldown, capacity
	// limit) so the presentation layer can render an actionable message.
	Details map[string]any
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewAuthorizationError(message string) *AppError {
	return &AppError{
		Code:    CodeAuthorization,
		Message: message,
	}
}

func NewEntitlementError(message string) *AppError {
	return &AppError{
		Code:    CodeEntitlement,
		Message: message,
	}
}

func NewCapacityError(limit int) *AppError {
	return &AppError{
		Code:    CodeCapacity,
		Message: "this post has reached its application limit",
		Details: map[string]any{"limit": limit},
	}
}

func NewDuplicateError(message string) *AppError {
	return &AppError{
		Code:    CodeDuplicate,
		Message: message,
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
	}
}

func NewRateLimitedError(remaining time.Duration) *AppError {
	return &AppError{
		Code:    CodeRateLimited,
		Message: "bump is on cooldown",
		Details: map[string]any{"retry_after_seconds": int(remaining.Seconds())},
	}
}

func NewInvalidTransitionError(from, to string) *AppError {
	return &AppError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("status cannot change from %s to %s", from, to),
		Details: map[string]any{"from": from, "to": to},
	}
}

func NewClosedError(message string) *AppError {
	return &AppError{
		Code:    CodeClosed,
		Message: message,
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// statusForCode maps an error code to its HTTP status.
func statusForCode(code string) int {
	switch code {
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeAuthorization:
		return fiber.StatusForbidden
	case CodeEntitlement:
		return fiber.StatusPaymentRequired
	case CodeCapacity, CodeDuplicate, CodeConflict, CodeInvalidTransition, CodeClosed:
		return fiber.StatusConflict
	case CodeRateLimited:
		return fiber.StatusTooManyRequests
	case CodeValidation:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return c.Status(statusForCode(appErr.Code)).JSON(ErrorResponse{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Details: appErr.Details,
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error: err.Error(),
	})
}
