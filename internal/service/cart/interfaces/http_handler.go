package interfaces

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/cart/application"
	"storefront/internal/service/cart/domain"
)

// PriceFormatter 把小计渲染成展示字符串
type PriceFormatter func(amount decimal.Decimal) string

// CartHandler 封装了购物车的 HTTP 处理器
type CartHandler struct {
	service *application.CartService
	format  PriceFormatter
}

// NewCartHandler 创建一个新的 HTTP 处理器实例，format 可以为 nil
func NewCartHandler(service *application.CartService, format PriceFormatter) *CartHandler {
	return &CartHandler{service: service, format: format}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *CartHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/cart", h.handleGet)
	mux.HandleFunc("/cart/items", h.handleAddItem)
	mux.HandleFunc("/cart/quantity", h.handleSetQuantity)
	mux.HandleFunc("/cart/remove", h.handleRemove)
	mux.HandleFunc("/cart/clear", h.handleClear)
	mux.HandleFunc("/cart/rewards", h.handleRewards)
}

type snapshotResponse struct {
	domain.Snapshot
	SubtotalDisplay string `json:"subtotal_display,omitempty"`
}

func (h *CartHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Get(r.Context(), r.URL.Query().Get("cart_id"))
	h.respond(w, r, snap, err)
}

func (h *CartHandler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req application.AddItemRequest
	if !decode(w, r, &req) {
		return
	}
	snap, err := h.service.AddItem(r.Context(), &req)
	h.respond(w, r, snap, err)
}

func (h *CartHandler) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	var req application.SetQuantityRequest
	if !decode(w, r, &req) {
		return
	}
	snap, err := h.service.SetQuantity(r.Context(), &req)
	h.respond(w, r, snap, err)
}

func (h *CartHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	var req application.RemoveItemRequest
	if !decode(w, r, &req) {
		return
	}
	snap, err := h.service.RemoveItem(r.Context(), &req)
	h.respond(w, r, snap, err)
}

func (h *CartHandler) handleClear(w http.ResponseWriter, r *http.Request) {
	var req application.ClearRequest
	if !decode(w, r, &req) {
		return
	}
	snap, err := h.service.Clear(r.Context(), &req)
	h.respond(w, r, snap, err)
}

func (h *CartHandler) handleRewards(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Rewards(r.Context(), r.URL.Query().Get("cart_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, resp)
}

func (h *CartHandler) respond(w http.ResponseWriter, r *http.Request, snap domain.Snapshot, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := snapshotResponse{Snapshot: snap}
	if h.format != nil {
		resp.SubtotalDisplay = h.format(snap.Subtotal)
	}
	writeJSON(w, resp)
}

// decode 只接受 POST 的 JSON 请求体
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// writeError 根据错误类型返回不同的 HTTP 状态码
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var statusCode int
	switch {
	case errors.Is(err, domain.ErrCartNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, domain.ErrMissingCartID), errors.Is(err, domain.ErrQuantityTooLarge):
		statusCode = http.StatusBadRequest
	default:
		statusCode = http.StatusInternalServerError
		logger.Ctx(r.Context()).Error().Err(err).Msg("cart request failed")
	}
	http.Error(w, err.Error(), statusCode)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
