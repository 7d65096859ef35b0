package infrastructure

import "storefront/internal/service/cart/domain"

// ToCartModel 将快照转换为数据库模型
func ToCartModel(snap domain.Snapshot) *CartModel {
	m := &CartModel{
		ID:                 snap.CartID,
		ItemCount:          snap.ItemCount,
		SubtotalMinorUnits: snap.SubtotalMinorUnits,
		Items:              make([]CartItemModel, 0, len(snap.Items)),
	}
	for i, it := range snap.Items {
		m.Items = append(m.Items, CartItemModel{
			CartID:      snap.CartID,
			ProductID:   it.ID,
			Position:    i,
			Name:        it.Name,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			ImageRef:    it.ImageRef,
			SKU:         it.Metadata.SKU,
			Brand:       it.Metadata.Brand,
			RewardClass: it.Metadata.RewardClass,
		})
	}
	return m
}

// ToDomainCart 将数据库模型还原为购物车聚合，行需按 Position 排好序
func ToDomainCart(m *CartModel) *domain.Cart {
	rows := make([]domain.LineItem, 0, len(m.Items))
	for _, it := range m.Items {
		rows = append(rows, domain.LineItem{
			ID:        it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			ImageRef:  it.ImageRef,
			Metadata: domain.Metadata{
				SKU:         it.SKU,
				Brand:       it.Brand,
				RewardClass: it.RewardClass,
			},
		})
	}
	return domain.Restore(m.ID, rows)
}
