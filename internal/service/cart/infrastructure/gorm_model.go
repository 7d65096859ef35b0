package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartModel 对应数据库中的 cart 表
type CartModel struct {
	ID                 string `gorm:"primaryKey;type:varchar(64)"`
	ItemCount          int
	SubtotalMinorUnits int64
	UpdatedAt          time.Time
	Items              []CartItemModel `gorm:"foreignKey:CartID;references:ID"`
}

// TableName 指定 GORM 应该使用的表名
func (CartModel) TableName() string {
	return "cart"
}

// CartItemModel 对应数据库中的 cart_item 表，(cart_id, product_id) 唯一
type CartItemModel struct {
	ID          uint   `gorm:"primaryKey"`
	CartID      string `gorm:"type:varchar(64);uniqueIndex:uk_cart_product"`
	ProductID   string `gorm:"type:varchar(128);uniqueIndex:uk_cart_product"`
	Position    int
	Name        string
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,6)"`
	Quantity    int
	ImageRef    string
	SKU         string
	Brand       string
	RewardClass string `gorm:"type:varchar(16)"`
}

// TableName 指定 GORM 应该使用的表名
func (CartItemModel) TableName() string {
	return "cart_item"
}
