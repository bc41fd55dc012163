package models

import "errors"

var (
	// ErrInvalidOrder matches every *InvalidOrderError via errors.Is.
	ErrInvalidOrder = errors.New("invalid order")

	ErrReceiptNotFound = errors.New("receipt not found")
	ErrClientNotFound  = errors.New("client not found")
	ErrClientExists    = errors.New("client already registered")
	ErrCustomerUnknown = errors.New("customer not found")

	// ErrTotalOutOfRange rejects a valid order whose amounts cannot be
	// represented. It is not an InvalidOrderError.
	ErrTotalOutOfRange = errors.New("order total out of range")
)

// InvalidOrderError reports why an order was rejected. Error returns the
// reason unchanged so callers can show it as is.
type InvalidOrderError struct {
	Reason string
}

func (e *InvalidOrderError) Error() string {
	return e.Reason
}

func (e *InvalidOrderError) Is(target error) bool {
	return target == ErrInvalidOrder
}
