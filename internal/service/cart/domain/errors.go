package domain

import "github.com/pkg/errors"

// MaxQuantity 是单行允许的最大数量
const MaxQuantity = 10000

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrMissingCartID    = errors.New("cart id is required")
	ErrQuantityTooLarge = errors.New("quantity too large")
)
