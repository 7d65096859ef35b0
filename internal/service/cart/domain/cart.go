package domain

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Metadata 是商品的附加信息，RewardClass 决定奖励的生效时间
type Metadata struct {
	SKU         string `json:"sku,omitempty"`
	Brand       string `json:"brand,omitempty"`
	RewardClass string `json:"reward_class,omitempty"`
}

// ItemDetails 是加购时随商品一起传入的展示信息
type ItemDetails struct {
	Name     string
	ImageRef string
	Metadata Metadata
}

// LineItem 是购物车中的一行，同一个商品 ID 只会有一行
type LineItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	ImageRef  string          `json:"image_ref,omitempty"`
	Metadata  Metadata        `json:"metadata"`
}

// Snapshot 是每次读取时重新计算的派生视图，不做缓存
type Snapshot struct {
	CartID             string          `json:"cart_id"`
	Items              []LineItem      `json:"items"`
	ItemCount          int             `json:"item_count"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	SubtotalMinorUnits int64           `json:"subtotal_minor_units"`
}

// Cart 是购物车聚合根。所有变更都在同一把锁下执行，
// 以 map 按商品 ID 存储保证唯一性，order 记录加购顺序。
type Cart struct {
	mu    sync.Mutex
	id    string
	items map[string]*LineItem
	order []string
}

func NewCart(id string) *Cart {
	return &Cart{id: id, items: make(map[string]*LineItem)}
}

// Restore 用持久化的行重建购物车：重复 ID 合并数量，数量小于 1 的行丢弃。
func Restore(id string, rows []LineItem) *Cart {
	c := NewCart(id)
	for _, row := range rows {
		if row.ID == "" || row.Quantity < 1 {
			continue
		}
		if existing, ok := c.items[row.ID]; ok {
			existing.Quantity += row.Quantity
			continue
		}
		item := row
		item.UnitPrice = clampPrice(item.UnitPrice)
		c.items[item.ID] = &item
		c.order = append(c.order, item.ID)
	}
	return c
}

func (c *Cart) ID() string { return c.id }

// AddItem 已存在的商品数量加 1，否则以数量 1 插入。负价格按 0 处理，空 ID 忽略。
// 已存在的行保留首次加购时的价格和信息。
func (c *Cart) AddItem(id string, unitPrice decimal.Decimal, details ItemDetails) bool {
	if id == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, ok := c.items[id]; ok {
		item.Quantity++
		return true
	}
	c.items[id] = &LineItem{
		ID:        id,
		Name:      details.Name,
		UnitPrice: clampPrice(unitPrice),
		Quantity:  1,
		ImageRef:  details.ImageRef,
		Metadata:  details.Metadata,
	}
	c.order = append(c.order, id)
	return true
}

// SetQuantity 数量小于 1 时移除该行；商品不存在时什么都不做。
func (c *Cart) SetQuantity(id string, quantity int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[id]
	if !ok {
		return false
	}
	if quantity < 1 {
		c.removeLocked(id)
		return true
	}
	if item.Quantity == quantity {
		return false
	}
	item.Quantity = quantity
	return true
}

// RemoveItem 是幂等的，移除不存在的商品不算错误
func (c *Cart) RemoveItem(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; !ok {
		return false
	}
	c.removeLocked(id)
	return true
}

func (c *Cart) Clear() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) == 0 {
		return false
	}
	c.items = make(map[string]*LineItem)
	c.order = nil
	return true
}

func (c *Cart) removeLocked(id string) {
	delete(c.items, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Snapshot 按加购顺序复制所有行并重新计算数量与小计
func (c *Cart) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{CartID: c.id, Items: make([]LineItem, 0, len(c.order)), Subtotal: decimal.Zero}
	for _, id := range c.order {
		item := *c.items[id]
		snap.Items = append(snap.Items, item)
		snap.ItemCount += item.Quantity
		snap.Subtotal = snap.Subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	snap.SubtotalMinorUnits = snap.Subtotal.Shift(2).Round(0).IntPart()
	return snap
}

// PriceScale 是单价保留的小数位数，与 cart_item.unit_price 列一致
const PriceScale = 6

func clampPrice(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	return p.Round(PriceScale)
}
