package application

import (
	"github.com/shopspring/decimal"

	rewarddomain "storefront/internal/service/reward/domain"
)

// AddItemRequest 加购请求，CartID 为空时创建新购物车
type AddItemRequest struct {
	CartID      string          `json:"cart_id"`
	ProductID   string          `json:"product_id"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	ImageRef    string          `json:"image_ref"`
	SKU         string          `json:"sku"`
	Brand       string          `json:"brand"`
	RewardClass string          `json:"reward_class"`
}

type SetQuantityRequest struct {
	CartID    string `json:"cart_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type RemoveItemRequest struct {
	CartID    string `json:"cart_id"`
	ProductID string `json:"product_id"`
}

type ClearRequest struct {
	CartID string `json:"cart_id"`
}

// RewardsResponse 是购物车奖励的分桶汇总
type RewardsResponse struct {
	CartID string `json:"cart_id"`
	rewarddomain.CartReward
}
