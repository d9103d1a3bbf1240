package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a uniqueness conflict on insert.
	ErrAlreadyExists = errors.New("already exists")

	// ErrProductNotFound means the referenced product id is unknown.
	ErrProductNotFound = errors.New("product not found")

	// ErrInsufficientStock means the requested quantity exceeds what the
	// catalog currently has.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrVariantUnavailable means the selected color does not exist on the
	// product or is out of stock.
	ErrVariantUnavailable = errors.New("variant unavailable")

	// ErrLineNotFound means the cart has no line for the given product/color.
	ErrLineNotFound = errors.New("cart line not found")

	// ErrEmptyOrder means an order was placed with no line items.
	ErrEmptyOrder = errors.New("empty order")

	// ErrInvalidAddress means the shipping address is missing components.
	ErrInvalidAddress = errors.New("invalid shipping address")

	// ErrOrderNotPaid blocks delivery of an unpaid non-COD order.
	ErrOrderNotPaid = errors.New("order not paid")
)
