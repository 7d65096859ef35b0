package domain

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	ErrMalformedRates   = errors.New("malformed exchange rate payload")
	ErrBaseRateMismatch = errors.New("base currency rate must be 1")
)

// SourceSeed 标记进程内置的种子汇率表
const SourceSeed = "seed"

// ExchangeRateTable 是一次发布后的汇率快照，发布后不再修改。
type ExchangeRateTable struct {
	AsOf   time.Time                  `json:"as_of"`
	Rates  map[string]decimal.Decimal `json:"rates"`
	TTL    time.Duration              `json:"-"`
	Source string                     `json:"source"`
}

var seedRates = map[string]string{
	"USD": "1",
	"EUR": "0.85",
	"GBP": "0.73",
	"CAD": "1.25",
	"JPY": "110",
	"AUD": "1.35",
	"CHF": "0.92",
	"INR": "74.5",
}

// SeedTable 返回内置汇率表。AsOf 为零值，启动后的第一次读取就会触发刷新。
func SeedTable(ttl time.Duration) *ExchangeRateTable {
	rates := make(map[string]decimal.Decimal, len(seedRates))
	for code, r := range seedRates {
		rates[code] = decimal.RequireFromString(r)
	}
	return &ExchangeRateTable{Rates: rates, TTL: ttl, Source: SourceSeed}
}

// NewTable 校验并构造一张汇率表：代码统一大写，基准货币缺失时补 1，不等于 1 视为错误。
func NewTable(rates map[string]decimal.Decimal, asOf time.Time, ttl time.Duration, source string) (*ExchangeRateTable, error) {
	if len(rates) == 0 {
		return nil, errors.Wrap(ErrMalformedRates, "no rates")
	}
	normalized := make(map[string]decimal.Decimal, len(rates)+1)
	for code, r := range rates {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			return nil, errors.Wrap(ErrMalformedRates, "empty currency code")
		}
		if !r.IsPositive() {
			return nil, errors.Wrapf(ErrMalformedRates, "rate for %s is %s", code, r)
		}
		normalized[code] = r
	}
	if base, ok := normalized[BaseCurrency]; !ok {
		normalized[BaseCurrency] = decimal.NewFromInt(1)
	} else if !base.Equal(decimal.NewFromInt(1)) {
		return nil, errors.Wrapf(ErrBaseRateMismatch, "got %s", base)
	}
	return &ExchangeRateTable{AsOf: asOf, Rates: normalized, TTL: ttl, Source: source}, nil
}

// Rate 返回相对基准货币的汇率；未知代码或非正数汇率按 1 处理。
func (t *ExchangeRateTable) Rate(code string) decimal.Decimal {
	if t != nil {
		if r, ok := t.Rates[strings.ToUpper(code)]; ok && r.IsPositive() {
			return r
		}
	}
	return decimal.NewFromInt(1)
}

// Expired 判断在 now 时刻该表是否已超过 TTL
func (t *ExchangeRateTable) Expired(now time.Time) bool {
	return now.Sub(t.AsOf) > t.TTL
}
