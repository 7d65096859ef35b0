package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"storefront/internal/service/cart/application"
	"storefront/internal/service/cart/infrastructure"
	rewarddomain "storefront/internal/service/reward/domain"
)

type flatRewards struct{}

func (flatRewards) CartReward(_ context.Context, lines []rewarddomain.Line) rewarddomain.CartReward {
	var r rewarddomain.CartReward
	for _, l := range lines {
		r.Add(rewarddomain.Calculation{AmountMinorUnits: 10, IsInstant: true}, l.Quantity)
	}
	return r
}

func newMux() *http.ServeMux {
	svc := application.NewCartService(infrastructure.NewMemoryCartRepository(), nil, flatRewards{})
	mux := http.NewServeMux()
	NewCartHandler(svc, func(d decimal.Decimal) string { return "$" + d.StringFixed(2) }).RegisterRoutes(mux)
	return mux
}

func do(t *testing.T, mux *http.ServeMux, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, url, strings.NewReader(body)))
	return rec
}

func TestCartEndpoints(t *testing.T) {
	mux := newMux()

	rec := do(t, mux, http.MethodPost, "/cart/items", `{"cart_id":"c1","product_id":"p1","unit_price":"25.00","reward_class":"instant"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("add status = %d (%s)", rec.Code, rec.Body.String())
	}
	do(t, mux, http.MethodPost, "/cart/items", `{"cart_id":"c1","product_id":"p1","unit_price":"25.00"}`)

	rec = do(t, mux, http.MethodGet, "/cart?cart_id=c1", "")
	var snap struct {
		ItemCount       int    `json:"item_count"`
		Subtotal        string `json:"subtotal"`
		SubtotalDisplay string `json:"subtotal_display"`
		Items           []struct {
			ID       string `json:"id"`
			Quantity int    `json:"quantity"`
		} `json:"items"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.ItemCount != 2 || len(snap.Items) != 1 || snap.SubtotalDisplay != "$50.00" {
		t.Errorf("snapshot = %+v", snap)
	}

	rec = do(t, mux, http.MethodGet, "/cart/rewards?cart_id=c1", "")
	var rewards struct {
		CartID string `json:"cart_id"`
		Total  int64  `json:"total_minor_units"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&rewards); err != nil {
		t.Fatalf("decode rewards: %v", err)
	}
	if rewards.CartID != "c1" || rewards.Total != 20 {
		t.Errorf("rewards = %+v", rewards)
	}

	rec = do(t, mux, http.MethodPost, "/cart/quantity", `{"cart_id":"c1","product_id":"p1","quantity":0}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"item_count":0`) {
		t.Errorf("quantity: %d %s", rec.Code, rec.Body.String())
	}
}

func TestCartEndpointErrors(t *testing.T) {
	mux := newMux()
	tests := []struct {
		name   string
		method string
		url    string
		body   string
		want   int
	}{
		{name: "unknown cart", method: http.MethodGet, url: "/cart?cart_id=missing", want: http.StatusNotFound},
		{name: "missing id", method: http.MethodGet, url: "/cart", want: http.StatusBadRequest},
		{name: "rewards unknown cart", method: http.MethodGet, url: "/cart/rewards?cart_id=missing", want: http.StatusNotFound},
		{name: "add wrong method", method: http.MethodGet, url: "/cart/items", want: http.StatusMethodNotAllowed},
		{name: "add bad body", method: http.MethodPost, url: "/cart/items", body: "{", want: http.StatusBadRequest},
		{name: "remove from unknown cart", method: http.MethodPost, url: "/cart/remove", body: `{"cart_id":"missing","product_id":"p"}`, want: http.StatusNotFound},
		{name: "clear without id", method: http.MethodPost, url: "/cart/clear", body: `{}`, want: http.StatusBadRequest},
		{name: "quantity too large", method: http.MethodPost, url: "/cart/quantity", body: `{"cart_id":"c1","product_id":"p1","quantity":10001}`, want: http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if rec := do(t, mux, tc.method, tc.url, tc.body); rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
