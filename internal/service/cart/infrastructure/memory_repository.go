package infrastructure

import (
	"context"
	"sync"

	"storefront/internal/service/cart/domain"
)

var _ domain.CartRepository = (*MemoryCartRepository)(nil)

// MemoryCartRepository 在未启用 MySQL 时使用，进程重启后数据丢失
type MemoryCartRepository struct {
	mu    sync.RWMutex
	saved map[string]domain.Snapshot
}

func NewMemoryCartRepository() *MemoryCartRepository {
	return &MemoryCartRepository{saved: make(map[string]domain.Snapshot)}
}

func (r *MemoryCartRepository) Load(_ context.Context, cartID string) (*domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap, ok := r.saved[cartID]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	return domain.Restore(cartID, snap.Items), nil
}

func (r *MemoryCartRepository) Save(_ context.Context, snap domain.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved[snap.CartID] = snap
	return nil
}
