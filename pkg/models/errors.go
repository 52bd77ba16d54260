package models

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderLineNotFound = errors.New("order line not found")
	ErrUserNotFound      = errors.New("user not found")

	ErrEmptyBasket       = errors.New("basket is empty")
	ErrInvalidTransition = errors.New("order status transition not allowed")
	ErrIntegrity         = errors.New("data integrity failure")

	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("access denied")
)

// ValidationError reports malformed input for a single field. An empty Field
// means the error concerns the request as a whole.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsNotFound reports whether err wraps any of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrOrderLineNotFound) ||
		errors.Is(err, ErrUserNotFound)
}
