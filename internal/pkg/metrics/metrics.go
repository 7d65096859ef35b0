// internal/pkg/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FallbackTotal 统计降级路径被触发的次数，按操作名区分
	FallbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "fallback_total",
		Help:      "Number of times an operation degraded to its fallback path.",
	}, []string{"operation"})

	// RateRefreshTotal 汇率刷新结果，result 为 success / failure
	RateRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "currency",
		Name:      "rate_refresh_total",
		Help:      "Exchange rate refresh attempts by result.",
	}, []string{"result"})

	// RewardLookupTotal 奖励查询结果，result 为 authoritative / rule / default
	RewardLookupTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "reward",
		Name:      "lookup_total",
		Help:      "Reward percentage resolutions by source.",
	}, []string{"source"})

	// CartMutationTotal 购物车变更次数
	CartMutationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "cart",
		Name:      "mutation_total",
		Help:      "Cart mutations by kind.",
	}, []string{"kind"})
)

// Handler 暴露 /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
