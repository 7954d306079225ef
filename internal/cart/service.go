package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/minishop/minishop/internal/domain"
	"github.com/minishop/minishop/internal/store"
)

// cartKey is where the ledger is persisted after every mutation.
const cartKey = "minishop-cart"

// ErrEmptyCart is returned by Checkout when there is nothing to buy.
var ErrEmptyCart = errors.New("cart is empty")

// Service is the cart ledger: an ordered, de-duplicated list of line items
// keyed by (product, size, color). Every mutation is persisted to the store
// before it returns, so a restart never loses an acknowledged action.
type Service struct {
	mu    sync.Mutex
	store store.Store
	items []domain.LineItem
}

// NewService restores any persisted ledger. A corrupt persisted cart is
// cleared and the session starts empty rather than failing.
func NewService(ctx context.Context, st store.Store) (*Service, error) {
	s := &Service{store: st}

	data, err := st.Get(ctx, cartKey)
	if errors.Is(err, store.ErrKeyNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("restore cart: %w", err)
	}

	var items []domain.LineItem
	if errParse := json.Unmarshal(data, &items); errParse != nil {
		log.Printf("discarding corrupt persisted cart: %v", errParse)
		if errDel := st.Delete(ctx, cartKey); errDel != nil {
			log.Printf("failed to clear persisted cart: %v", errDel)
		}
		return s, nil
	}
	s.items = items
	return s, nil
}

// Add puts a line in the ledger. The quantity is normalized to at least 1.
// A line with the same (product, size, color) identity merges by summing
// quantities; the first-add unit price wins.
func (s *Service) Add(ctx context.Context, item domain.LineItem) error {
	item.Qty = domain.NormalizeQty(item.Qty)

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := false
	for i := range s.items {
		if s.items[i].Key() == item.Key() {
			s.items[i].Qty += item.Qty
			merged = true
			break
		}
	}
	if !merged {
		s.items = append(s.items, item)
	}
	return s.persist(ctx)
}

// QuickAdd adds a single unit of a product using its first declared size and
// color, falling back to the one-size / black defaults when the product
// declares none.
func (s *Service) QuickAdd(ctx context.Context, p domain.Product) error {
	item := domain.LineItem{
		ProductID: p.ID,
		Name:      p.Name,
		Size:      domain.DefaultSize,
		ColorHex:  domain.DefaultSwatch.Hex,
		ColorName: domain.DefaultSwatch.Name,
		UnitPrice: p.Price,
		Qty:       1,
	}
	if len(p.Sizes) > 0 {
		item.Size = p.Sizes[0]
	}
	if len(p.Colors) > 0 {
		item.ColorHex = p.Colors[0].Hex
		item.ColorName = p.Colors[0].Name
	}
	return s.Add(ctx, item)
}

// Remove deletes the line at the given position. An out-of-range index is a
// no-op so a stale UI reference never faults.
func (s *Service) Remove(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.items) {
		return nil
	}
	s.items = append(s.items[:index], s.items[index+1:]...)
	return s.persist(ctx)
}

// Clear empties the ledger.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	return s.persist(ctx)
}

// Checkout empties the ledger, deletes the persisted copy and returns an
// order reference. An empty cart returns ErrEmptyCart.
func (s *Service) Checkout(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		return "", ErrEmptyCart
	}
	s.items = nil
	if err := s.store.Delete(ctx, cartKey); err != nil {
		return "", fmt.Errorf("clear persisted cart: %w", err)
	}
	return uuid.New().String(), nil
}

// Items returns a copy of the ledger in insertion order.
func (s *Service) Items() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.LineItem(nil), s.items...)
}

// TotalItemCount sums all line quantities, for the cart badge and hero
// summary.
func (s *Service) TotalItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, it := range s.items {
		total += it.Qty
	}
	return total
}

// persist writes the full ledger through to the store. Callers hold the lock.
func (s *Service) persist(ctx context.Context) error {
	items := s.items
	if items == nil {
		items = []domain.LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if errSet := s.store.Set(ctx, cartKey, data); errSet != nil {
		return fmt.Errorf("persist cart: %w", errSet)
	}
	return nil
}
