package types

import "errors"

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("local store is detached")
	ErrAlreadyAttached = errors.New("local store is already attached")
)

// Index errors.
var (
	ErrCategoryCycle = errors.New("category graph contains a cycle")
	ErrNotFound      = errors.New("record not found")
)

// Order aggregate errors.
var (
	ErrOrderFinalized      = errors.New("finalized order cannot be modified")
	ErrLineNotFound        = errors.New("order line not found")
	ErrPaymentLineNotFound = errors.New("payment line not found")
	ErrUnknownProduct      = errors.New("product not available in the catalog")
	ErrUnknownRegister     = errors.New("cash register not available in the catalog")

	// ErrNotCheckoutOrder marks checkout-only operations called on a
	// counter order.
	ErrNotCheckoutOrder = errors.New("not a checkout order")
)

// Sync errors.
var (
	// ErrMissingCustomer is returned by the invoice submission path before
	// any network call when the order has no customer attached.
	ErrMissingCustomer = errors.New("missing customer")
)
