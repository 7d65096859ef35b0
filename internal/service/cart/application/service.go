package application

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/metrics"
	"storefront/internal/service/cart/domain"
	"storefront/internal/service/cart/domain/port"
	rewarddomain "storefront/internal/service/reward/domain"
)

// RewardEstimator 由奖励计算器实现
type RewardEstimator interface {
	CartReward(ctx context.Context, lines []rewarddomain.Line) rewarddomain.CartReward
}

const defaultIdleTTL = 30 * time.Minute

type cartEntry struct {
	mu   sync.Mutex
	cart *domain.Cart

	// 以下字段受 CartService.mu 保护
	refs     int
	lastUsed time.Time

	// keep 为 false 的条目是无变化请求临时创建的，释放后即丢弃
	keep atomic.Bool
	// dirty 表示最近一次持久化失败，这样的条目不会被淘汰
	dirty atomic.Bool
}

// CartService 是购物车的应用服务。
// 活跃的购物车保存在内存中，首次访问时从仓储加载，空闲超过 idleTTL 后淘汰；
// 同一购物车的 变更 -> 快照 -> 持久化 -> 发布事件 串行执行。
type CartService struct {
	repo      domain.CartRepository
	publisher port.EventPublisher
	rewards   RewardEstimator
	idleTTL   time.Duration
	now       func() time.Time

	loads singleflight.Group

	mu        sync.Mutex
	carts     map[string]*cartEntry
	lastSweep time.Time
}

type Option func(*CartService)

// WithIdleTTL 设置内存购物车的空闲淘汰时间，<= 0 表示不淘汰
func WithIdleTTL(ttl time.Duration) Option {
	return func(s *CartService) { s.idleTTL = ttl }
}

func NewCartService(repo domain.CartRepository, publisher port.EventPublisher, rewards RewardEstimator, opts ...Option) *CartService {
	s := &CartService{
		repo:      repo,
		publisher: publisher,
		rewards:   rewards,
		idleTTL:   defaultIdleTTL,
		now:       time.Now,
		carts:     make(map[string]*cartEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CartService) AddItem(ctx context.Context, req *AddItemRequest) (domain.Snapshot, error) {
	cartID := req.CartID
	if cartID == "" {
		cartID = uuid.NewString()
	}
	details := domain.ItemDetails{
		Name:     req.Name,
		ImageRef: req.ImageRef,
		Metadata: domain.Metadata{SKU: req.SKU, Brand: req.Brand, RewardClass: req.RewardClass},
	}
	return s.mutate(ctx, cartID, true, domain.MutationAdd, req.ProductID, func(c *domain.Cart) bool {
		return c.AddItem(req.ProductID, req.UnitPrice, details)
	})
}

func (s *CartService) SetQuantity(ctx context.Context, req *SetQuantityRequest) (domain.Snapshot, error) {
	if req.Quantity > domain.MaxQuantity {
		return domain.Snapshot{}, errors.Wrapf(domain.ErrQuantityTooLarge, "%d > %d", req.Quantity, domain.MaxQuantity)
	}
	return s.mutate(ctx, req.CartID, false, domain.MutationQuantity, req.ProductID, func(c *domain.Cart) bool {
		return c.SetQuantity(req.ProductID, req.Quantity)
	})
}

func (s *CartService) RemoveItem(ctx context.Context, req *RemoveItemRequest) (domain.Snapshot, error) {
	return s.mutate(ctx, req.CartID, false, domain.MutationRemove, req.ProductID, func(c *domain.Cart) bool {
		return c.RemoveItem(req.ProductID)
	})
}

func (s *CartService) Clear(ctx context.Context, req *ClearRequest) (domain.Snapshot, error) {
	return s.mutate(ctx, req.CartID, false, domain.MutationClear, "", func(c *domain.Cart) bool {
		return c.Clear()
	})
}

// Get 返回购物车的最新快照
func (s *CartService) Get(ctx context.Context, cartID string) (domain.Snapshot, error) {
	entry, err := s.acquire(ctx, cartID, false)
	if err != nil {
		return domain.Snapshot{}, err
	}
	defer s.release(cartID, entry)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.cart.Snapshot(), nil
}

// Rewards 按购物车当前内容估算奖励
func (s *CartService) Rewards(ctx context.Context, cartID string) (*RewardsResponse, error) {
	snap, err := s.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	lines := make([]rewarddomain.Line, 0, len(snap.Items))
	for _, it := range snap.Items {
		lines = append(lines, rewarddomain.Line{
			ProductID:      it.ID,
			Price:          it.UnitPrice,
			Quantity:       it.Quantity,
			Classification: rewarddomain.ParseClassification(it.Metadata.RewardClass),
		})
	}
	return &RewardsResponse{CartID: cartID, CartReward: s.rewards.CartReward(ctx, lines)}, nil
}

func (s *CartService) mutate(ctx context.Context, cartID string, create bool, kind domain.MutationKind, productID string, apply func(*domain.Cart) bool) (domain.Snapshot, error) {
	ctx, span := otel.Tracer("cart").Start(ctx, "CartService."+string(kind))
	defer span.End()
	span.SetAttributes(attribute.String("cart.id", cartID), attribute.String("product.id", productID))

	entry, err := s.acquire(ctx, cartID, create)
	if err != nil {
		span.RecordError(err)
		return domain.Snapshot{}, err
	}
	defer s.release(cartID, entry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	changed := apply(entry.cart)
	snap := entry.cart.Snapshot()
	if !changed {
		return snap, nil
	}
	entry.keep.Store(true)
	metrics.CartMutationTotal.WithLabelValues(string(kind)).Inc()

	log := logger.Ctx(ctx).With().Str("cart_id", cartID).Str("kind", string(kind)).Logger()
	// 持久化和事件都是尽力而为，内存中的购物车始终可用
	if s.repo != nil {
		err := s.repo.Save(ctx, snap)
		if err != nil {
			log.Error().Err(err).Msg("failed to persist cart")
		}
		entry.dirty.Store(err != nil)
	}
	if s.publisher != nil {
		event := &domain.CartUpdated{
			EventID:            uuid.NewString(),
			CartID:             cartID,
			Kind:               kind,
			ProductID:          productID,
			ItemCount:          snap.ItemCount,
			SubtotalMinorUnits: snap.SubtotalMinorUnits,
			OccurredAt:         time.Now().UTC(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.Error().Err(err).Msg("failed to publish cart event")
		}
	}
	return snap, nil
}

// acquire 返回内存中的购物车并增加引用计数，必要时从仓储加载；
// create 为 true 时找不到就新建。调用方必须配对调用 release。
func (s *CartService) acquire(ctx context.Context, cartID string, create bool) (*cartEntry, error) {
	if cartID == "" {
		return nil, domain.ErrMissingCartID
	}
	if e := s.lookup(cartID); e != nil {
		return e, nil
	}

	// 仓储 I/O 不持有全局锁，同一购物车的并发加载合并为一次
	var loaded *domain.Cart
	if s.repo != nil {
		v, err, _ := s.loads.Do(cartID, func() (any, error) {
			cart, err := s.repo.Load(context.WithoutCancel(ctx), cartID)
			if errors.Is(err, domain.ErrCartNotFound) {
				return (*domain.Cart)(nil), nil
			}
			return cart, err
		})
		if err != nil {
			return nil, errors.Wrapf(err, "load cart %s", cartID)
		}
		loaded = v.(*domain.Cart)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// 加载期间可能已有其他请求放入了同一购物车
	if e, ok := s.carts[cartID]; ok {
		e.refs++
		return e, nil
	}
	e := &cartEntry{cart: loaded}
	if loaded != nil {
		e.keep.Store(true)
	} else {
		if !create {
			return nil, domain.ErrCartNotFound
		}
		e.cart = domain.NewCart(cartID)
	}
	e.refs = 1
	s.carts[cartID] = e
	return e, nil
}

func (s *CartService) lookup(cartID string) *cartEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweepLocked(now)
	e, ok := s.carts[cartID]
	if !ok {
		return nil
	}
	e.refs++
	return e
}

// release 释放引用；无人使用且从未发生变更的临时条目直接丢弃
func (s *CartService) release(cartID string, e *cartEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.refs--
	e.lastUsed = s.now()
	if e.refs == 0 && !e.keep.Load() && s.carts[cartID] == e {
		delete(s.carts, cartID)
	}
}

// sweepLocked 淘汰空闲过久的购物车。没有仓储时内存就是唯一副本，不做淘汰。
func (s *CartService) sweepLocked(now time.Time) {
	if s.repo == nil || s.idleTTL <= 0 || now.Sub(s.lastSweep) < s.idleTTL/2 {
		return
	}
	s.lastSweep = now
	for id, e := range s.carts {
		if e.refs == 0 && !e.dirty.Load() && now.Sub(e.lastUsed) > s.idleTTL {
			delete(s.carts, id)
		}
	}
}
