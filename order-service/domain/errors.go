package domain

import "github.com/pkg/errors"

var (
	ErrInvalidOrder    = errors.New("invalid order")
	ErrOrderNotFound   = errors.New("order not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrProductNotFound = errors.New("product not found")
)
