package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness conflict on insert.
	ErrAlreadyExists = errors.New("already exists")
	// ErrUnauthorized indicates the caller could not be resolved to a user.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidTransition indicates an order status move that is not strictly forward.
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// GatewayError carries a failure reported by the external payment gateway.
// Internal state is never mutated when one of these is returned, so the
// failed operation is safe to retry.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("payment gateway error %d: %s", e.StatusCode, e.Message)
	}
	return "payment gateway error: " + e.Message
}
