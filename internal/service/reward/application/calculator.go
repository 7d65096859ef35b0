package application

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"storefront/internal/pkg/fallback"
	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/metrics"
	"storefront/internal/service/reward/domain"
	"storefront/internal/service/reward/domain/port"
)

const defaultConcurrency = 8

// AmountFormatter 把分渲染成展示字符串
type AmountFormatter func(minorUnits int64) string

// Calculator 计算单个商品与整个购物车的奖励。
// 权威查询失败时依次使用本地规则和默认比例，错误不会返回给调用方。
type Calculator struct {
	lookup      port.RewardLookup
	rules       port.RuleSet
	policy      domain.Policy
	concurrency int
	format      AmountFormatter
}

type Option func(*Calculator)

func WithLookup(l port.RewardLookup) Option { return func(c *Calculator) { c.lookup = l } }

func WithRules(r port.RuleSet) Option { return func(c *Calculator) { c.rules = r } }

func WithConcurrency(n int) Option {
	return func(c *Calculator) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

func WithFormatter(f AmountFormatter) Option { return func(c *Calculator) { c.format = f } }

func NewCalculator(policy domain.Policy, opts ...Option) *Calculator {
	c := &Calculator{
		policy:      policy,
		concurrency: defaultConcurrency,
		format:      dollars,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ItemReward 计算单个商品的奖励
func (c *Calculator) ItemReward(ctx context.Context, productID string, price decimal.Decimal, class domain.Classification) domain.Calculation {
	ctx, span := otel.Tracer("reward").Start(ctx, "Calculator.ItemReward")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID), attribute.String("reward.class", string(class)))

	priceMinor := domain.ToMinorUnits(price)
	class = domain.ParseClassification(string(class))

	var calc domain.Calculation
	if c.lookup == nil || productID == "" {
		calc = c.local(ctx, productID, price, priceMinor, class)
	} else {
		calc = fallback.Run(ctx, "reward_lookup",
			func() (domain.Calculation, error) { return c.authoritative(ctx, productID, priceMinor) },
			func() domain.Calculation { return c.local(ctx, productID, price, priceMinor, class) },
		)
	}
	metrics.RewardLookupTotal.WithLabelValues(string(calc.Source)).Inc()
	span.SetAttributes(attribute.Int64("reward.amount_minor", calc.AmountMinorUnits), attribute.String("reward.source", string(calc.Source)))

	calc.DisplayText = c.displayText(calc)
	return calc
}

func (c *Calculator) authoritative(ctx context.Context, productID string, priceMinor int64) (domain.Calculation, error) {
	res, err := c.lookup.LookupReward(ctx, productID, priceMinor)
	if err != nil {
		return domain.Calculation{}, err
	}
	amount := res.AmountMinorUnits
	if amount < 0 {
		amount = 0
	}
	days := res.CoolingOffDays
	if days < 0 {
		days = 0
	}
	return domain.Calculation{
		AmountMinorUnits: amount,
		Percentage:       res.Percentage,
		IsInstant:        res.IsInstant,
		CoolingOffDays:   days,
		Source:           domain.SourceAuthoritative,
	}, nil
}

func (c *Calculator) local(ctx context.Context, productID string, price decimal.Decimal, priceMinor int64, class domain.Classification) domain.Calculation {
	pct, source := c.policy.Percentage, domain.SourceDefault
	if c.rules != nil {
		in := port.RuleInput{ProductID: productID, Price: price.InexactFloat64(), Classification: string(class)}
		if rulePct, name, ok := c.rules.Percentage(ctx, in); ok {
			pct, source = rulePct, domain.SourceRule
			logger.Ctx(ctx).Debug().Str("rule", name).Str("product_id", productID).Msg("reward rule matched")
		}
	}
	days, instant := c.policy.Timing(class)
	return domain.Calculation{
		AmountMinorUnits: domain.AmountFor(priceMinor, pct),
		Percentage:       pct,
		IsInstant:        instant,
		CoolingOffDays:   days,
		Source:           source,
	}
}

func (c *Calculator) displayText(calc domain.Calculation) string {
	if !calc.ShouldDisplay() {
		return ""
	}
	if calc.IsInstant {
		return fmt.Sprintf("Earn %s in rewards instantly", c.format(calc.AmountMinorUnits))
	}
	return fmt.Sprintf("Earn %s in rewards after %d days", c.format(calc.AmountMinorUnits), calc.CoolingOffDays)
}

// CartReward 并发计算每一行的奖励并按即时/待生效分桶汇总
func (c *Calculator) CartReward(ctx context.Context, lines []domain.Line) domain.CartReward {
	ctx, span := otel.Tracer("reward").Start(ctx, "Calculator.CartReward")
	defer span.End()
	span.SetAttributes(attribute.Int("cart.lines", len(lines)))

	calcs := make([]domain.Calculation, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		g.Go(func() error {
			calcs[i] = c.ItemReward(gctx, line.ProductID, line.Price, line.Classification)
			return nil
		})
	}
	// ItemReward 从不返回错误
	_ = g.Wait()

	var total domain.CartReward
	for i, line := range lines {
		total.Add(calcs[i], line.Quantity)
	}
	span.SetAttributes(attribute.Int64("reward.total_minor", total.TotalMinorUnits))
	return total
}

func dollars(minor int64) string {
	return "$" + decimal.New(minor, -2).StringFixed(2)
}
