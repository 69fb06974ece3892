package market

import "errors"

var (
	ErrInvalidQuantity             = errors.New("invalid quantity")
	ErrQuantityExceedsAvailability = errors.New("quantity exceeds availability")
	ErrEmptyCart                   = errors.New("cart is empty")
	ErrNoCurrentUser               = errors.New("no current user")
	ErrProductNotFound             = errors.New("product not found")
)
