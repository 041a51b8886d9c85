package order

import "errors"

var (
	// ErrNotFound means no order exists for the given id.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidState means the operation is not legal from the order's current status.
	ErrInvalidState = errors.New("invalid state for operation")
	// ErrUnauthorized means the actor is not a party to the order, or not the
	// correct party for this operation.
	ErrUnauthorized = errors.New("actor not authorized for operation")
	// ErrValidation covers missing or out-of-range fields.
	ErrValidation = errors.New("validation failed")
	// ErrStaleState means a concurrent update won the write; the caller saw an
	// outdated version of the order.
	ErrStaleState = errors.New("order was modified concurrently")
)
