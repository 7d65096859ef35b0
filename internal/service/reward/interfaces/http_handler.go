package interfaces

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"storefront/internal/service/reward/application"
	"storefront/internal/service/reward/domain"
)

// RewardHandler 暴露奖励估算接口
type RewardHandler struct {
	calc *application.Calculator
}

func NewRewardHandler(calc *application.Calculator) *RewardHandler {
	return &RewardHandler{calc: calc}
}

func (h *RewardHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/rewards/item", h.handleItem)
	mux.HandleFunc("/rewards/cart", h.handleCart)
}

type itemResponse struct {
	domain.Calculation
	ShouldDisplay bool `json:"should_display"`
}

func (h *RewardHandler) handleItem(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	price, err := decimal.NewFromString(q.Get("price"))
	if err != nil {
		http.Error(w, "invalid price", http.StatusBadRequest)
		return
	}
	class := domain.ParseClassification(q.Get("classification"))

	calc := h.calc.ItemReward(r.Context(), q.Get("product_id"), price, class)
	writeJSON(w, itemResponse{Calculation: calc, ShouldDisplay: calc.ShouldDisplay()})
}

// 购物车估算请求的上限，保证 金额 × 数量 的累加不会溢出 int64
const (
	maxCartLines    = 500
	maxLineQuantity = 10000
	maxBodyBytes    = 1 << 20
)

var maxLinePrice = decimal.New(1, 9)

type cartRequest struct {
	Lines []domain.Line `json:"lines"`
}

func (h *RewardHandler) handleCart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req cartRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validateLines(req.Lines); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, h.calc.CartReward(r.Context(), req.Lines))
}

func validateLines(lines []domain.Line) error {
	if len(lines) > maxCartLines {
		return errors.Errorf("too many lines: %d > %d", len(lines), maxCartLines)
	}
	for i, l := range lines {
		if l.Quantity > maxLineQuantity {
			return errors.Errorf("line %d: quantity %d exceeds %d", i, l.Quantity, maxLineQuantity)
		}
		if l.Price.GreaterThan(maxLinePrice) {
			return errors.Errorf("line %d: price %s exceeds %s", i, l.Price, maxLinePrice)
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
