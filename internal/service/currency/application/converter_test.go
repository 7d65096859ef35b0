package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/service/currency/domain"
)

type staticRates struct{ table *domain.ExchangeRateTable }

func (s staticRates) GetRates(context.Context) *domain.ExchangeRateTable { return s.table }

func seedConverter() *Converter {
	return NewConverter(staticRates{domain.SeedTable(time.Hour)}, NewFormatter("en-US"))
}

func TestConvertIdentity(t *testing.T) {
	c := seedConverter()
	amounts := []string{"0", "0.1", "19.99", "123456.789", "-5"}
	for _, cur := range append(domain.Catalog(), domain.Currency{Code: "XYZ"}) {
		for _, a := range amounts {
			x := dec(a)
			got := c.Convert(context.Background(), x, cur.Code, cur.Code)
			if got.String() != x.String() {
				t.Errorf("Convert(%s, %s, %s) = %s", a, cur.Code, cur.Code, got)
			}
		}
	}
}

func TestConvertRoundTrip(t *testing.T) {
	c := seedConverter()
	tolerance := dec("0.000000001")
	for _, a := range domain.Catalog() {
		for _, b := range domain.Catalog() {
			for _, s := range []string{"1", "49.95", "1000"} {
				x := dec(s)
				back := c.Convert(context.Background(), c.Convert(context.Background(), x, a.Code, b.Code), b.Code, a.Code)
				if back.Sub(x).Abs().GreaterThan(tolerance) {
					t.Errorf("%s %s->%s->%s = %s", s, a.Code, b.Code, a.Code, back)
				}
			}
		}
	}
}

func TestConvert(t *testing.T) {
	c := seedConverter()
	tests := []struct {
		name     string
		amount   string
		from, to string
		want     string
	}{
		{name: "usd to eur", amount: "100", from: "USD", to: "EUR", want: "85"},
		{name: "eur to gbp via usd", amount: "85", from: "EUR", to: "GBP", want: "73"},
		{name: "unknown source counts as 1", amount: "10", from: "XYZ", to: "EUR", want: "8.5"},
		{name: "unknown target counts as 1", amount: "85", from: "EUR", to: "XYZ", want: "100"},
		{name: "case insensitive", amount: "100", from: "usd", to: "jpy", want: "11000"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Convert(context.Background(), dec(tc.amount), tc.from, tc.to)
			if !got.Equal(dec(tc.want)) {
				t.Errorf("Convert = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	f := NewFormatter("en-US")
	eur, _ := domain.Lookup("EUR")
	jpy, _ := domain.Lookup("JPY")
	usd, _ := domain.Lookup("USD")
	tests := []struct {
		name   string
		amount decimal.Decimal
		cur    domain.Currency
		want   string
	}{
		{name: "eur two decimals", amount: dec("85"), cur: eur, want: "€85.00"},
		{name: "jpy whole units", amount: dec("1500.4"), cur: jpy, want: "¥1,500"},
		{name: "grouping", amount: dec("1234.5"), cur: usd, want: "$1,234.50"},
		{name: "rounds half up", amount: dec("0.125"), cur: usd, want: "$0.13"},
		{name: "negative", amount: dec("-5"), cur: usd, want: "-$5.00"},
		{name: "beyond float precision", amount: dec("123456789012345678.99"), cur: usd, want: "$123,456,789,012,345,678.99"},
		{name: "zero", amount: dec("0"), cur: usd, want: "$0.00"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := f.Format(tc.amount, tc.cur); got != tc.want {
				t.Errorf("Format = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFormatFallsBackToPlain(t *testing.T) {
	eur, _ := domain.Lookup("EUR")
	jpy, _ := domain.Lookup("JPY")

	broken := NewFormatter("not a locale!!")
	if got := broken.Format(dec("85"), eur); got != "€85.00" {
		t.Errorf("Format = %q, want €85.00", got)
	}
	// 降级路径统一两位小数
	if got := broken.Format(dec("1500"), jpy); got != "¥1500.00" {
		t.Errorf("Format = %q, want ¥1500.00", got)
	}

	usd, _ := domain.Lookup("USD")
	if got := NewFormatter("en-US").Format(dec("100000000000000000000"), usd); got != "$100000000000000000000.00" {
		t.Errorf("out of range amount = %q", got)
	}

	var nilFormatter *Formatter
	if got := nilFormatter.Format(dec("1"), eur); got != "€1.00" {
		t.Errorf("nil formatter = %q, want €1.00", got)
	}
}

func TestDisplay(t *testing.T) {
	c := seedConverter()
	if got := c.Display(context.Background(), dec("100"), "USD", "EUR"); got != "€85.00" {
		t.Errorf("Display = %q, want €85.00", got)
	}
	if got := c.Display(context.Background(), dec("10"), "USD", "xyz"); got != "XYZ 10.00" {
		t.Errorf("Display unknown = %q", got)
	}
}
