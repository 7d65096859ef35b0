package port

import (
	"context"

	"storefront/internal/service/cart/domain"
)

// EventPublisher 定义了购物车事件的发布接口
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.CartUpdated) error
}
