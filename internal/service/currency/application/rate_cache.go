package application

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"storefront/internal/pkg/fallback"
	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/metrics"
	"storefront/internal/service/currency/domain"
	"storefront/internal/service/currency/domain/port"
)

const (
	defaultTTL          = time.Hour
	defaultFetchTimeout = 5 * time.Second
	refreshKey          = "refresh"
)

// RateCache 持有进程内唯一的汇率表。
// 读取无锁；过期后由 singleflight 合并并发刷新，失败时保留旧表，一个 TTL 内最多尝试一次。
type RateCache struct {
	provider     port.RateProvider
	clock        domain.Clock
	ttl          time.Duration
	fetchTimeout time.Duration

	table       atomic.Pointer[domain.ExchangeRateTable]
	lastAttempt atomic.Int64 // UnixNano，0 表示从未尝试
	group       singleflight.Group
}

type RateCacheOption func(*RateCache)

func WithClock(clock domain.Clock) RateCacheOption {
	return func(c *RateCache) { c.clock = clock }
}

func WithFetchTimeout(d time.Duration) RateCacheOption {
	return func(c *RateCache) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

func NewRateCache(provider port.RateProvider, ttl time.Duration, opts ...RateCacheOption) *RateCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	c := &RateCache{
		provider:     provider,
		clock:        domain.SystemClock{},
		ttl:          ttl,
		fetchTimeout: defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.table.Store(domain.SeedTable(ttl))
	return c
}

// GetRates 返回当前可用的最佳汇率表，从不返回错误。
func (c *RateCache) GetRates(ctx context.Context) *domain.ExchangeRateTable {
	if !c.due() {
		return c.table.Load()
	}
	v, _, _ := c.group.Do(refreshKey, func() (any, error) {
		// 等待期间可能已有其他调用完成了刷新
		if !c.due() {
			return c.table.Load(), nil
		}
		table := c.refresh(ctx)
		// 刷新结束后才记录，飞行中的并发调用会等待同一结果
		c.lastAttempt.Store(c.clock.Now().UnixNano())
		return table, nil
	})
	return v.(*domain.ExchangeRateTable)
}

// Current 返回当前表，不触发刷新
func (c *RateCache) Current() *domain.ExchangeRateTable {
	return c.table.Load()
}

func (c *RateCache) due() bool {
	last := c.lastAttempt.Load()
	if last == 0 {
		return true
	}
	return c.clock.Now().Sub(time.Unix(0, last)) > c.ttl
}

func (c *RateCache) refresh(ctx context.Context) *domain.ExchangeRateTable {
	// 刷新结果由所有等待者共享，不能被单个调用方取消
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
	defer cancel()

	fetchCtx, span := otel.Tracer("currency").Start(fetchCtx, "RateCache.refresh")
	defer span.End()
	span.SetAttributes(attribute.String("rate.provider", c.provider.Name()))

	current := c.table.Load()
	return fallback.Run(fetchCtx, "rate_refresh",
		func() (*domain.ExchangeRateTable, error) {
			rates, err := c.provider.FetchRates(fetchCtx)
			if err != nil {
				return nil, err
			}
			table, err := domain.NewTable(rates, c.clock.Now(), c.ttl, c.provider.Name())
			if err != nil {
				return nil, err
			}
			c.table.Store(table)
			metrics.RateRefreshTotal.WithLabelValues("success").Inc()
			logger.Ctx(ctx).Info().Int("currencies", len(table.Rates)).Str("source", table.Source).Msg("exchange rates refreshed")
			return table, nil
		},
		func() *domain.ExchangeRateTable {
			metrics.RateRefreshTotal.WithLabelValues("failure").Inc()
			span.SetAttributes(attribute.Bool("rate.stale", true))
			return current
		},
	)
}
