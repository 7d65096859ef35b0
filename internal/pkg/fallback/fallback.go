// internal/pkg/fallback/fallback.go
package fallback

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/metrics"
)

// Run 执行 primary，出错或 panic 时改用 fallback 的结果。
// 降级本身不会向调用方返回错误，只记录日志并计数。
func Run[T any](ctx context.Context, operation string, primary func() (T, error), fallback func() T) T {
	result, err := safeCall(primary)
	if err == nil {
		return result
	}
	logger.Ctx(ctx).Warn().Err(err).Str("operation", operation).Msg("falling back")
	metrics.FallbackTotal.WithLabelValues(operation).Inc()
	return fallback()
}

// safeCall 把 primary 中的 panic 转成 error
func safeCall[T any](fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			result = zero
			err = errors.New(fmt.Sprintf("panic: %v", r))
		}
	}()
	return fn()
}
