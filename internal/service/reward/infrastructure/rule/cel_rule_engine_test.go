package rule

import (
	"context"
	"testing"

	"storefront/internal/service/reward/domain/port"
)

func TestCELRuleSet(t *testing.T) {
	rs, err := NewCELRuleSet([]Definition{
		{Name: "premium", When: "price >= 500.0", Percentage: 5},
		{Name: "affiliate-electronics", When: `classification == "deferred" && product_id.startsWith("elec-")`, Percentage: 4},
	})
	if err != nil {
		t.Fatalf("NewCELRuleSet: %v", err)
	}
	if rs.Len() != 2 {
		t.Errorf("Len = %d, want 2", rs.Len())
	}

	tests := []struct {
		name     string
		in       port.RuleInput
		wantRule string
		wantPct  string
		wantOK   bool
	}{
		{name: "premium price", in: port.RuleInput{ProductID: "p1", Price: 650, Classification: "standard"}, wantRule: "premium", wantPct: "5", wantOK: true},
		{name: "first match wins", in: port.RuleInput{ProductID: "elec-1", Price: 900, Classification: "deferred"}, wantRule: "premium", wantPct: "5", wantOK: true},
		{name: "second rule", in: port.RuleInput{ProductID: "elec-2", Price: 20, Classification: "deferred"}, wantRule: "affiliate-electronics", wantPct: "4", wantOK: true},
		{name: "no match", in: port.RuleInput{ProductID: "p2", Price: 20, Classification: "instant"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pct, name, ok := rs.Percentage(context.Background(), tc.in)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if name != tc.wantRule || pct.String() != tc.wantPct {
				t.Errorf("got (%s, %s), want (%s, %s)", name, pct, tc.wantRule, tc.wantPct)
			}
		})
	}
}

func TestCELRuleSetRejectsInvalidRules(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
	}{
		{name: "syntax error", def: Definition{Name: "bad", When: "price >=", Percentage: 1}},
		{name: "not bool", def: Definition{Name: "num", When: "price * 2.0", Percentage: 1}},
		{name: "unknown variable", def: Definition{Name: "var", When: "brand == \"x\"", Percentage: 1}},
		{name: "negative", def: Definition{Name: "neg", When: "true", Percentage: -1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewCELRuleSet([]Definition{tc.def}); err == nil {
				t.Error("expected error")
			}
		})
	}
}
