package domain

import "context"

// CartRepository 定义了购物车的持久化接口。
// 它位于领域层，但由基础设施层实现。
type CartRepository interface {
	// Load 找不到时返回 ErrCartNotFound
	Load(ctx context.Context, cartID string) (*Cart, error)

	// Save 用快照整体覆盖已保存的购物车
	Save(ctx context.Context, snap Snapshot) error
}
