// cmd/reward-service/main.go
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/bootstrap"
	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/tracing"
	"storefront/internal/service/reward/domain"
	"storefront/internal/service/reward/domain/port"
)

const (
	serviceName = "reward-service"
	// faultyProductID 用于演示降级：总是超时后返回 500
	faultyProductID = "product-reward-fail"
)

var tracer trace.Tracer

func main() {
	bootstrap.Init()

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8091,
		RegisterHandlers: func(ctx bootstrap.AppCtx) {
			tracer = otel.Tracer(serviceName)
			ctx.Mux.HandleFunc("/reward_lookup", handleRewardLookup)
		},
	})
}

// handleRewardLookup 根据商品 ID 前缀给出专属比例：
// "inst-" 即时到账 5%，"aff-" 联盟商品 45 天后到账 4%，其余 3 天后到账 3%。
func handleRewardLookup(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "reward-service.Lookup")
	defer span.End()

	productID := r.URL.Query().Get("product_id")
	priceMinor, err := strconv.ParseInt(r.URL.Query().Get("price_minor_units"), 10, 64)
	if productID == "" || err != nil {
		http.Error(w, "product_id and price_minor_units are required", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("product.id", productID))

	// <<<<<<< 故障注入点 >>>>>>>>>
	if productID == faultyProductID {
		time.Sleep(800 * time.Millisecond)
		err := fmt.Errorf("reward ledger unavailable")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	// <<<<<<< 故障注入结束 >>>>>>>>>

	res := port.LookupResult{Percentage: decimal.NewFromInt(3), CoolingOffDays: domain.DefaultStandardCoolingOff}
	switch {
	case strings.HasPrefix(productID, "inst-"):
		res.Percentage, res.CoolingOffDays, res.IsInstant = decimal.NewFromInt(5), 0, true
	case strings.HasPrefix(productID, "aff-"):
		res.Percentage, res.CoolingOffDays = decimal.NewFromInt(4), domain.DefaultDeferredCoolingOff
	}
	res.AmountMinorUnits = domain.AmountFor(priceMinor, res.Percentage)

	logger.Ctx(ctx).Info().
		Str("product_id", productID).
		Str("trace_id", tracing.GetTraceIDFromContext(ctx)).
		Int64("amount_minor", res.AmountMinorUnits).
		Msg("reward looked up")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
