package adapter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/redis"
	"storefront/internal/service/currency/domain/port"
)

const ratesKey = "storefront:rates:usd"

var _ port.RateProvider = (*CachedRateProvider)(nil)

// CachedRateProvider 在上游汇率源前加一层 Redis 共享缓存，多个实例在 TTL 内只打一次上游。
// Redis 不可用时直接访问上游。
type CachedRateProvider struct {
	next        port.RateProvider
	redisClient *redis.Client
	ttl         time.Duration
}

func NewCachedRateProvider(next port.RateProvider, redisClient *redis.Client, ttl time.Duration) *CachedRateProvider {
	return &CachedRateProvider{next: next, redisClient: redisClient, ttl: ttl}
}

func (a *CachedRateProvider) Name() string { return a.next.Name() + "+redis" }

func (a *CachedRateProvider) FetchRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	log := logger.Ctx(ctx)
	rdb := a.redisClient.GetClient()

	cached, err := rdb.Get(ctx, ratesKey).Bytes()
	switch {
	case err == nil:
		var rates map[string]decimal.Decimal
		if jerr := json.Unmarshal(cached, &rates); jerr == nil && len(rates) > 0 {
			return rates, nil
		}
		log.Warn().Msg("discarding unreadable cached exchange rates")
	case !redis.Nil(err):
		log.Warn().Err(err).Msg("redis unavailable for exchange rates, calling provider directly")
	}

	rates, err := a.next.FetchRates(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(rates)
	if err != nil {
		return nil, errors.Wrap(err, "encode rates for cache")
	}
	if err := rdb.Set(ctx, ratesKey, payload, a.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("failed to store exchange rates in redis")
	}
	return rates, nil
}
