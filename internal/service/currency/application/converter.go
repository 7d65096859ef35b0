package application

import (
	"context"

	"github.com/shopspring/decimal"

	"storefront/internal/service/currency/domain"
)

// RateSource 由 RateCache 实现
type RateSource interface {
	GetRates(ctx context.Context) *domain.ExchangeRateTable
}

// Converter 负责币种换算与展示，本身无状态。
type Converter struct {
	rates     RateSource
	formatter *Formatter
}

func NewConverter(rates RateSource, formatter *Formatter) *Converter {
	return &Converter{rates: rates, formatter: formatter}
}

// Convert 经 USD 两跳换算：amount / rate[from] * rate[to]。同币种原样返回。
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to string) decimal.Decimal {
	from, to = domain.Resolve(from).Code, domain.Resolve(to).Code
	if from == to {
		return amount
	}
	table := c.rates.GetRates(ctx)
	usd := amount.Div(table.Rate(from))
	return usd.Mul(table.Rate(to))
}

// Format 见 Formatter.Format
func (c *Converter) Format(amount decimal.Decimal, currency domain.Currency) string {
	return c.formatter.Format(amount, currency)
}

// Display 换算后直接格式化为目标币种的展示字符串
func (c *Converter) Display(ctx context.Context, amount decimal.Decimal, from, to string) string {
	target := domain.Resolve(to)
	return c.formatter.Format(c.Convert(ctx, amount, from, target.Code), target)
}
