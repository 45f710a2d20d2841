package order

import "errors"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderNumberExists = errors.New("order number already exists")
	ErrStaleState        = errors.New("order was modified concurrently")
)
