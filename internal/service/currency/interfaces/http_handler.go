package interfaces

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/service/currency/application"
	"storefront/internal/service/currency/domain"
)

// CurrencyHandler 暴露汇率查询、换算与格式化接口
type CurrencyHandler struct {
	cache     *application.RateCache
	converter *application.Converter
}

func NewCurrencyHandler(cache *application.RateCache, converter *application.Converter) *CurrencyHandler {
	return &CurrencyHandler{cache: cache, converter: converter}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *CurrencyHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/currencies", h.handleCurrencies)
	mux.HandleFunc("/rates", h.handleRates)
	mux.HandleFunc("/convert", h.handleConvert)
	mux.HandleFunc("/format", h.handleFormat)
}

func (h *CurrencyHandler) handleCurrencies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, domain.Catalog())
}

func (h *CurrencyHandler) handleRates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.cache.GetRates(r.Context()))
}

type convertResponse struct {
	Amount    decimal.Decimal `json:"amount"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Converted decimal.Decimal `json:"converted"`
	Display   string          `json:"display"`
}

func (h *CurrencyHandler) handleConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil {
		http.Error(w, "invalid amount", http.StatusBadRequest)
		return
	}
	from := strings.ToUpper(q.Get("from"))
	to := strings.ToUpper(q.Get("to"))
	if from == "" {
		from = domain.BaseCurrency
	}
	if to == "" {
		to = domain.BaseCurrency
	}

	converted := h.converter.Convert(r.Context(), amount, from, to)
	writeJSON(w, convertResponse{
		Amount:    amount,
		From:      from,
		To:        to,
		Converted: converted,
		Display:   h.converter.Format(converted, domain.Resolve(to)),
	})
}

func (h *CurrencyHandler) handleFormat(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil {
		http.Error(w, "invalid amount", http.StatusBadRequest)
		return
	}
	code := q.Get("currency")
	if code == "" {
		code = domain.BaseCurrency
	}
	writeJSON(w, map[string]string{"display": h.converter.Format(amount, domain.Resolve(code))})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
