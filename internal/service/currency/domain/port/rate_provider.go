package port

import (
	"context"

	"github.com/shopspring/decimal"
)

// RateProvider 定义了外部汇率源的接口，返回相对 USD 的汇率。
type RateProvider interface {
	FetchRates(ctx context.Context) (map[string]decimal.Decimal, error)
	Name() string
}
