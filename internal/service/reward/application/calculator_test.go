package application

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"storefront/internal/service/reward/domain"
	"storefront/internal/service/reward/domain/port"
)

type fakeLookup struct {
	mu      sync.Mutex
	results map[string]*port.LookupResult
	calls   int
}

func (f *fakeLookup) LookupReward(_ context.Context, productID string, _ int64) (*port.LookupResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if res, ok := f.results[productID]; ok {
		return res, nil
	}
	return nil, errors.New("lookup unavailable")
}

type fixedRules struct {
	pct decimal.Decimal
}

func (r fixedRules) Percentage(_ context.Context, in port.RuleInput) (decimal.Decimal, string, bool) {
	if in.Price >= 500 {
		return r.pct, "premium", true
	}
	return decimal.Zero, "", false
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestItemRewardDeferredFallback(t *testing.T) {
	calc := NewCalculator(domain.DefaultPolicy(), WithLookup(&fakeLookup{}))

	got := calc.ItemReward(context.Background(), "p1", dec("100.00"), domain.ClassDeferred)
	if got.AmountMinorUnits != 300 {
		t.Errorf("amount = %d, want 300", got.AmountMinorUnits)
	}
	if got.IsInstant {
		t.Error("deferred reward must not be instant")
	}
	if got.CoolingOffDays != 45 {
		t.Errorf("cooling off = %d, want 45", got.CoolingOffDays)
	}
	if got.Source != domain.SourceDefault {
		t.Errorf("source = %s", got.Source)
	}
	if got.DisplayText != "Earn $3.00 in rewards after 45 days" {
		t.Errorf("display = %q", got.DisplayText)
	}
}

func TestItemReward(t *testing.T) {
	lookup := &fakeLookup{results: map[string]*port.LookupResult{
		"auth":     {AmountMinorUnits: 725, IsInstant: true, CoolingOffDays: 0, Percentage: dec("7.25")},
		"negative": {AmountMinorUnits: -40, IsInstant: false, CoolingOffDays: -2, Percentage: dec("1")},
	}}
	calc := NewCalculator(domain.DefaultPolicy(), WithLookup(lookup), WithRules(fixedRules{pct: dec("5")}))

	tests := []struct {
		name        string
		productID   string
		price       string
		class       domain.Classification
		wantAmount  int64
		wantInstant bool
		wantDays    int
		wantSource  domain.Source
		wantDisplay bool
	}{
		{name: "authoritative used verbatim", productID: "auth", price: "100", class: domain.ClassDeferred, wantAmount: 725, wantInstant: true, wantSource: domain.SourceAuthoritative, wantDisplay: true},
		{name: "authoritative negative clamps", productID: "negative", price: "100", class: domain.ClassStandard, wantAmount: 0, wantSource: domain.SourceAuthoritative},
		{name: "rule on lookup failure", productID: "x", price: "600", class: domain.ClassInstant, wantAmount: 3000, wantInstant: true, wantSource: domain.SourceRule, wantDisplay: true},
		{name: "default on lookup failure", productID: "x", price: "10", class: domain.ClassStandard, wantAmount: 30, wantDays: 3, wantSource: domain.SourceDefault, wantDisplay: true},
		{name: "zero price suppressed", productID: "x", price: "0", class: domain.ClassInstant, wantAmount: 0, wantInstant: true, wantSource: domain.SourceDefault},
		{name: "unknown class is standard", productID: "x", price: "10", class: "mystery", wantAmount: 30, wantDays: 3, wantSource: domain.SourceDefault, wantDisplay: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := calc.ItemReward(context.Background(), tc.productID, dec(tc.price), tc.class)
			if got.AmountMinorUnits != tc.wantAmount {
				t.Errorf("amount = %d, want %d", got.AmountMinorUnits, tc.wantAmount)
			}
			if got.IsInstant != tc.wantInstant {
				t.Errorf("instant = %v, want %v", got.IsInstant, tc.wantInstant)
			}
			if got.CoolingOffDays != tc.wantDays {
				t.Errorf("days = %d, want %d", got.CoolingOffDays, tc.wantDays)
			}
			if got.Source != tc.wantSource {
				t.Errorf("source = %s, want %s", got.Source, tc.wantSource)
			}
			if got.ShouldDisplay() != tc.wantDisplay || (got.DisplayText != "") != tc.wantDisplay {
				t.Errorf("display = %q, ShouldDisplay = %v", got.DisplayText, got.ShouldDisplay())
			}
		})
	}
}

func TestItemRewardWithoutLookup(t *testing.T) {
	calc := NewCalculator(domain.DefaultPolicy())
	got := calc.ItemReward(context.Background(), "p1", dec("20"), domain.ClassInstant)
	if got.AmountMinorUnits != 60 || !got.IsInstant || got.DisplayText != "Earn $0.60 in rewards instantly" {
		t.Errorf("got %+v", got)
	}
}

func TestCartReward(t *testing.T) {
	lookup := &fakeLookup{results: map[string]*port.LookupResult{
		"auth": {AmountMinorUnits: 100, IsInstant: true},
	}}
	calc := NewCalculator(domain.DefaultPolicy(), WithLookup(lookup), WithConcurrency(2))

	lines := []domain.Line{
		{ProductID: "d1", Price: dec("100.00"), Quantity: 2, Classification: domain.ClassDeferred}, // 300 x2 pending
		{ProductID: "i1", Price: dec("50.00"), Quantity: 1, Classification: domain.ClassInstant},   // 150 instant
		{ProductID: "s1", Price: dec("10.00"), Quantity: 3, Classification: domain.ClassStandard},  // 30 x3 pending
		{ProductID: "auth", Price: dec("999"), Quantity: 2, Classification: domain.ClassDeferred},  // 100 x2 instant
		{ProductID: "z1", Price: dec("100.00"), Quantity: 0, Classification: domain.ClassInstant},  // ignored
		{ProductID: "f1", Price: dec("0"), Quantity: 4, Classification: domain.ClassInstant},       // free
	}
	got := calc.CartReward(context.Background(), lines)

	want := domain.CartReward{TotalMinorUnits: 1040, InstantMinorUnits: 350, PendingMinorUnits: 690}
	if got != want {
		t.Errorf("CartReward = %+v, want %+v", got, want)
	}
	if got.InstantMinorUnits+got.PendingMinorUnits != got.TotalMinorUnits {
		t.Error("buckets do not sum to total")
	}
	// 数量为 0 的行不发起查询
	if lookup.calls != 5 {
		t.Errorf("lookup calls = %d, want 5", lookup.calls)
	}
}

func TestCartRewardBucketInvariant(t *testing.T) {
	calc := NewCalculator(domain.DefaultPolicy())
	classes := []domain.Classification{domain.ClassInstant, domain.ClassDeferred, domain.ClassStandard}
	for n := 1; n <= 20; n++ {
		lines := make([]domain.Line, n)
		for i := range lines {
			lines[i] = domain.Line{
				ProductID:      "p",
				Price:          decimal.New(int64(137*i+n), -2),
				Quantity:       i%4 + 1,
				Classification: classes[(i+n)%len(classes)],
			}
		}
		got := calc.CartReward(context.Background(), lines)
		if got.InstantMinorUnits+got.PendingMinorUnits != got.TotalMinorUnits {
			t.Fatalf("n=%d: %+v", n, got)
		}
	}
}

func TestCartRewardEmpty(t *testing.T) {
	calc := NewCalculator(domain.DefaultPolicy())
	if got := calc.CartReward(context.Background(), nil); got != (domain.CartReward{}) {
		t.Errorf("empty cart reward = %+v", got)
	}
}
