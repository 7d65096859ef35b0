package application

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"storefront/internal/service/cart/domain"
	"storefront/internal/service/cart/infrastructure"
	rewarddomain "storefront/internal/service/reward/domain"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*domain.CartUpdated
}

func (p *recordingPublisher) Publish(_ context.Context, e *domain.CartUpdated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

type lineRecorder struct {
	lines []rewarddomain.Line
}

func (r *lineRecorder) CartReward(_ context.Context, lines []rewarddomain.Line) rewarddomain.CartReward {
	r.lines = lines
	var total rewarddomain.CartReward
	for _, l := range lines {
		total.Add(rewarddomain.Calculation{AmountMinorUnits: 1, IsInstant: l.Classification == rewarddomain.ClassInstant}, l.Quantity)
	}
	return total
}

type failingRepo struct{}

func (failingRepo) Load(context.Context, string) (*domain.Cart, error) {
	return nil, errors.New("db down")
}

func (failingRepo) Save(context.Context, domain.Snapshot) error { return nil }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCartServiceFlow(t *testing.T) {
	repo := infrastructure.NewMemoryCartRepository()
	pub := &recordingPublisher{}
	svc := NewCartService(repo, pub, &lineRecorder{})
	ctx := context.Background()

	snap, err := svc.AddItem(ctx, &AddItemRequest{ProductID: "p1", UnitPrice: dec("25.00")})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if snap.CartID == "" {
		t.Fatal("expected a generated cart id")
	}
	cartID := snap.CartID

	snap, _ = svc.AddItem(ctx, &AddItemRequest{CartID: cartID, ProductID: "p1", UnitPrice: dec("25.00")})
	if len(snap.Items) != 1 || snap.ItemCount != 2 || !snap.Subtotal.Equal(dec("50")) {
		t.Errorf("snapshot = %+v", snap)
	}

	snap, _ = svc.SetQuantity(ctx, &SetQuantityRequest{CartID: cartID, ProductID: "p1", Quantity: 0})
	if snap.ItemCount != 0 {
		t.Errorf("itemCount after setQuantity 0 = %d", snap.ItemCount)
	}

	// 无变化的操作不持久化也不发事件
	if _, err := svc.RemoveItem(ctx, &RemoveItemRequest{CartID: cartID, ProductID: "p1"}); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if len(pub.events) != 3 {
		t.Errorf("events = %d, want 3", len(pub.events))
	}
	kinds := []domain.MutationKind{domain.MutationAdd, domain.MutationAdd, domain.MutationQuantity}
	for i, k := range kinds {
		if pub.events[i].Kind != k {
			t.Errorf("event %d kind = %s, want %s", i, pub.events[i].Kind, k)
		}
	}

	saved, err := repo.Load(ctx, cartID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if saved.Snapshot().ItemCount != 0 {
		t.Errorf("persisted itemCount = %d, want 0", saved.Snapshot().ItemCount)
	}
}

func TestCartServiceLoadsFromRepository(t *testing.T) {
	repo := infrastructure.NewMemoryCartRepository()
	seed := domain.NewCart("existing")
	seed.AddItem("p9", dec("3"), domain.ItemDetails{})
	repo.Save(context.Background(), seed.Snapshot())

	svc := NewCartService(repo, nil, &lineRecorder{})
	snap, err := svc.Get(context.Background(), "existing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if snap.ItemCount != 1 {
		t.Errorf("itemCount = %d", snap.ItemCount)
	}
}

func TestCartServiceErrors(t *testing.T) {
	ctx := context.Background()
	svc := NewCartService(infrastructure.NewMemoryCartRepository(), nil, &lineRecorder{})

	if _, err := svc.Get(ctx, "nope"); !errors.Is(err, domain.ErrCartNotFound) {
		t.Errorf("Get unknown: err = %v", err)
	}
	if _, err := svc.SetQuantity(ctx, &SetQuantityRequest{CartID: "nope", ProductID: "p", Quantity: 2}); !errors.Is(err, domain.ErrCartNotFound) {
		t.Errorf("SetQuantity unknown: err = %v", err)
	}
	if _, err := svc.Clear(ctx, &ClearRequest{}); !errors.Is(err, domain.ErrMissingCartID) {
		t.Errorf("Clear without id: err = %v", err)
	}

	broken := NewCartService(failingRepo{}, nil, &lineRecorder{})
	if _, err := broken.Get(ctx, "c1"); err == nil || errors.Is(err, domain.ErrCartNotFound) {
		t.Errorf("repository failure should surface, got %v", err)
	}
}

func TestCartServiceRewards(t *testing.T) {
	rec := &lineRecorder{}
	svc := NewCartService(nil, nil, rec)
	ctx := context.Background()

	snap, _ := svc.AddItem(ctx, &AddItemRequest{CartID: "c1", ProductID: "a", UnitPrice: dec("10"), RewardClass: "instant"})
	svc.AddItem(ctx, &AddItemRequest{CartID: "c1", ProductID: "b", UnitPrice: dec("20"), RewardClass: "deferred"})
	svc.AddItem(ctx, &AddItemRequest{CartID: "c1", ProductID: "b"})

	resp, err := svc.Rewards(ctx, snap.CartID)
	if err != nil {
		t.Fatalf("Rewards: %v", err)
	}
	if len(rec.lines) != 2 || rec.lines[1].Quantity != 2 || rec.lines[1].Classification != rewarddomain.ClassDeferred {
		t.Errorf("lines = %+v", rec.lines)
	}
	if resp.TotalMinorUnits != 3 || resp.InstantMinorUnits != 1 || resp.PendingMinorUnits != 2 {
		t.Errorf("rewards = %+v", resp)
	}
}

func TestCartServiceConcurrentAdds(t *testing.T) {
	svc := NewCartService(infrastructure.NewMemoryCartRepository(), &recordingPublisher{}, &lineRecorder{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.AddItem(ctx, &AddItemRequest{CartID: "shared", ProductID: "p1", UnitPrice: dec("1")})
		}()
	}
	wg.Wait()

	snap, err := svc.Get(ctx, "shared")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(snap.Items) != 1 || snap.Items[0].Quantity != 40 {
		t.Errorf("items = %+v", snap.Items)
	}
}
