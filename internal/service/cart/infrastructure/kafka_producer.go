package infrastructure

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"storefront/internal/pkg/mq"
	"storefront/internal/service/cart/domain"
	"storefront/internal/service/cart/domain/port"
)

var _ port.EventPublisher = (*CartEventProducer)(nil)

// CartEventProducer 把购物车事件写入 Kafka，以 cart id 作为分区 key
type CartEventProducer struct {
	writer mq.MessageWriter
}

func NewCartEventProducer(writer mq.MessageWriter) *CartEventProducer {
	return &CartEventProducer{writer: writer}
}

func (p *CartEventProducer) Publish(ctx context.Context, event *domain.CartUpdated) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal cart event")
	}
	// 调用通用的 mq.ProduceMessage，它会自动处理追踪上下文注入
	return mq.ProduceMessage(ctx, p.writer, []byte(event.CartID), eventBytes)
}
