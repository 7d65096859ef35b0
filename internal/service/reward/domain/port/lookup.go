package port

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrMalformedLookup 表示权威服务返回了 2xx 但缺少必需字段
var ErrMalformedLookup = errors.New("malformed reward lookup response")

// LookupResult 是权威奖励服务针对某个商品的返回
type LookupResult struct {
	AmountMinorUnits int64           `json:"reward_amount_minor_units"`
	IsInstant        bool            `json:"is_instant"`
	CoolingOffDays   int             `json:"cooling_off_days"`
	Percentage       decimal.Decimal `json:"percentage"`
}

// RewardLookup 定义了权威奖励查询的接口
type RewardLookup interface {
	LookupReward(ctx context.Context, productID string, priceMinorUnits int64) (*LookupResult, error)
}

// RuleInput 是本地规则求值时可见的事实
type RuleInput struct {
	ProductID      string
	Price          float64
	Classification string
}

// RuleSet 在权威查询失败时给出商品专属比例；没有规则命中时 ok 为 false
type RuleSet interface {
	Percentage(ctx context.Context, in RuleInput) (pct decimal.Decimal, name string, ok bool)
}
