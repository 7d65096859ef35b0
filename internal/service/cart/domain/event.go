package domain

import "time"

// MutationKind 标识一次购物车变更的类型
type MutationKind string

const (
	MutationAdd      MutationKind = "add"
	MutationQuantity MutationKind = "quantity"
	MutationRemove   MutationKind = "remove"
	MutationClear    MutationKind = "clear"
)

// CartUpdated 在每次成功变更后发布，携带变更后的汇总值
type CartUpdated struct {
	EventID            string       `json:"eventId"`
	CartID             string       `json:"cartId"`
	Kind               MutationKind `json:"kind"`
	ProductID          string       `json:"productId,omitempty"`
	ItemCount          int          `json:"itemCount"`
	SubtotalMinorUnits int64        `json:"subtotalMinorUnits"`
	OccurredAt         time.Time    `json:"occurredAt"`
}
