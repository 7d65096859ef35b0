// cmd/valuation-service/main.go
package main

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"storefront/internal/pkg/bootstrap"
	"storefront/internal/pkg/httpclient"
	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/metrics"
	"storefront/internal/pkg/mq"
	"storefront/internal/pkg/redis"
	cartApp "storefront/internal/service/cart/application"
	cartDomain "storefront/internal/service/cart/domain"
	cartPort "storefront/internal/service/cart/domain/port"
	cartInfra "storefront/internal/service/cart/infrastructure"
	cartIface "storefront/internal/service/cart/interfaces"
	currencyApp "storefront/internal/service/currency/application"
	currencyDomain "storefront/internal/service/currency/domain"
	currencyPort "storefront/internal/service/currency/domain/port"
	currencyAdapter "storefront/internal/service/currency/infrastructure/adapter"
	currencyIface "storefront/internal/service/currency/interfaces"
	rewardApp "storefront/internal/service/reward/application"
	rewardDomain "storefront/internal/service/reward/domain"
	rewardAdapter "storefront/internal/service/reward/infrastructure/adapter"
	"storefront/internal/service/reward/infrastructure/rule"
	rewardIface "storefront/internal/service/reward/interfaces"
)

const serviceName = "valuation-service"

// closers 在关停时按注册的逆序执行
var closers []func()

// main 函数是应用的"组装根" (Composition Root)
func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName:      serviceName,
		Port:             cfg.App.Port,
		RegisterHandlers: registerHandlers,
		OnShutdown: func(ctx context.Context) {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	})
}

func registerHandlers(appCtx bootstrap.AppCtx) {
	cfg := appCtx.Config
	log := logger.Ctx(context.Background())

	client := httpclient.NewClient(otel.Tracer(serviceName))
	if appCtx.Nacos != nil {
		client.WithDiscoverer(appCtx.Nacos)
	}

	// 1. 汇率缓存与换算
	var provider currencyPort.RateProvider = currencyAdapter.NewHTTPRateProvider(client, endpoint(cfg.Currency.Provider))
	if cfg.Infra.Redis.Enabled {
		redisClient, err := redis.NewClient(cfg.Infra.Redis.Addrs)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, exchange rates are not shared between instances")
		} else {
			provider = currencyAdapter.NewCachedRateProvider(provider, redisClient, cfg.Currency.RedisTTL)
			closers = append(closers, func() { redisClient.Close() })
		}
	}
	rateCache := currencyApp.NewRateCache(provider, cfg.Currency.TTL, currencyApp.WithFetchTimeout(cfg.Currency.Provider.Timeout))
	converter := currencyApp.NewConverter(rateCache, currencyApp.NewFormatter(cfg.App.Locale))
	usd := currencyDomain.Resolve(currencyDomain.BaseCurrency)

	// 2. 奖励计算
	opts := []rewardApp.Option{
		rewardApp.WithConcurrency(cfg.Reward.LookupConcurrency),
		rewardApp.WithFormatter(func(minor int64) string {
			return converter.Format(decimal.New(minor, -2), usd)
		}),
	}
	if cfg.Reward.Lookup.URL != "" || cfg.Reward.Lookup.Service != "" {
		opts = append(opts, rewardApp.WithLookup(rewardAdapter.NewRewardHTTPAdapter(client, endpoint(cfg.Reward.Lookup), cfg.Reward.Lookup.Timeout)))
	}
	if len(cfg.Reward.Rules) > 0 {
		defs := make([]rule.Definition, 0, len(cfg.Reward.Rules))
		for _, r := range cfg.Reward.Rules {
			defs = append(defs, rule.Definition{Name: r.Name, When: r.When, Percentage: r.Percentage})
		}
		rules, err := rule.NewCELRuleSet(defs)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid reward rules")
		}
		log.Info().Int("rules", rules.Len()).Msg("reward rules loaded")
		opts = append(opts, rewardApp.WithRules(rules))
	}
	calculator := rewardApp.NewCalculator(rewardDomain.NewPolicy(cfg.Reward.DefaultPercentage, cfg.Reward.CoolingOffDays), opts...)

	// 3. 购物车
	var repo cartDomain.CartRepository = cartInfra.NewMemoryCartRepository()
	if cfg.Infra.MySQL.Enabled {
		db, err := cartInfra.OpenMySQL(cfg.Infra.MySQL.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to mysql")
		}
		gormRepo := cartInfra.NewGormCartRepository(db)
		if err := gormRepo.AutoMigrate(); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate cart tables")
		}
		repo = gormRepo
	}
	var publisher cartPort.EventPublisher
	if cfg.Infra.Kafka.Enabled {
		writer := mq.NewKafkaWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.CartTopic)
		closers = append(closers, func() { writer.Close() })
		publisher = cartInfra.NewCartEventProducer(writer)
	}
	cartService := cartApp.NewCartService(repo, publisher, calculator, cartApp.WithIdleTTL(cfg.Cart.IdleTTL))

	// 4. 路由
	currencyIface.NewCurrencyHandler(rateCache, converter).RegisterRoutes(appCtx.Mux)
	rewardIface.NewRewardHandler(calculator).RegisterRoutes(appCtx.Mux)
	cartIface.NewCartHandler(cartService, func(d decimal.Decimal) string { return converter.Format(d, usd) }).RegisterRoutes(appCtx.Mux)
	appCtx.Mux.Handle("/metrics", metrics.Handler())
	appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
}

func endpoint(c bootstrap.EndpointConfig) httpclient.Endpoint {
	return httpclient.Endpoint{URL: c.URL, Service: c.Service, Path: c.Path}
}
