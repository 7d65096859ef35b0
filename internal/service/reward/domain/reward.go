package domain

import (
	"github.com/shopspring/decimal"
)

// Source 标记奖励比例的来源
type Source string

const (
	SourceAuthoritative Source = "authoritative"
	SourceRule          Source = "rule"
	SourceDefault       Source = "default"
)

// Calculation 是单个商品的奖励计算结果，不持久化
type Calculation struct {
	AmountMinorUnits int64           `json:"reward_amount_minor_units"`
	Percentage       decimal.Decimal `json:"reward_percentage"`
	IsInstant        bool            `json:"is_instant"`
	CoolingOffDays   int             `json:"cooling_off_days"`
	DisplayText      string          `json:"display_text"`
	Source           Source          `json:"source"`
}

// ShouldDisplay 金额为 0 时不展示奖励标识
func (c Calculation) ShouldDisplay() bool {
	return c.AmountMinorUnits > 0
}

// Line 是参与购物车奖励汇总的一行
type Line struct {
	ProductID      string          `json:"product_id"`
	Price          decimal.Decimal `json:"price"`
	Quantity       int             `json:"quantity"`
	Classification Classification  `json:"classification"`
}

// CartReward 汇总结果，Instant + Pending == Total
type CartReward struct {
	TotalMinorUnits   int64 `json:"total_minor_units"`
	InstantMinorUnits int64 `json:"instant_minor_units"`
	PendingMinorUnits int64 `json:"pending_minor_units"`
}

// Add 把一行的奖励计入对应的桶
func (r *CartReward) Add(c Calculation, quantity int) {
	if quantity <= 0 || c.AmountMinorUnits <= 0 {
		return
	}
	amount := c.AmountMinorUnits * int64(quantity)
	if c.IsInstant {
		r.InstantMinorUnits += amount
	} else {
		r.PendingMinorUnits += amount
	}
	r.TotalMinorUnits += amount
}

// ToMinorUnits 把价格换算为分，负数按 0 处理
func ToMinorUnits(price decimal.Decimal) int64 {
	if price.IsNegative() {
		return 0
	}
	return price.Shift(2).Round(0).IntPart()
}

// AmountFor 计算 round(priceMinorUnits × percentage / 100)，结果不小于 0
func AmountFor(priceMinorUnits int64, percentage decimal.Decimal) int64 {
	if priceMinorUnits <= 0 || !percentage.IsPositive() {
		return 0
	}
	return decimal.NewFromInt(priceMinorUnits).Mul(percentage).Div(decimal.NewFromInt(100)).Round(0).IntPart()
}
