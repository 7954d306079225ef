package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/minishop/minishop/internal/domain"
	"github.com/minishop/minishop/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	m    sync.Mutex
	data map[string][]byte
	sets int
	err  error
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string][]byte)}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.data[key]
	if !ok {
		return nil, store.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) Set(_ context.Context, key string, value []byte) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sets++
	m.data[key] = value
	return nil
}

func (m *mockStore) Delete(_ context.Context, key string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.data, key)
	return nil
}

func (m *mockStore) setCount() int {
	m.m.Lock()
	defer m.m.Unlock()
	return m.sets
}

func (m *mockStore) persisted(t *testing.T) []domain.LineItem {
	t.Helper()
	m.m.Lock()
	defer m.m.Unlock()
	data, ok := m.data["minishop-cart"]
	require.True(t, ok, "no persisted cart")
	var items []domain.LineItem
	require.NoError(t, json.Unmarshal(data, &items))
	return items
}

func line(productID, size, hex string, price int64, qty int) domain.LineItem {
	return domain.LineItem{
		ProductID: productID,
		Size:      size,
		ColorHex:  hex,
		ColorName: "Some Color",
		UnitPrice: decimal.NewFromInt(price),
		Qty:       qty,
	}
}

func TestAdd_MergesSameVariant(t *testing.T) {
	ms := newMockStore()
	sut, err := NewService(context.Background(), ms)
	require.NoError(t, err)

	require.NoError(t, sut.Add(context.Background(), line("p1", "M", "#000000", 20, 2)))
	require.NoError(t, sut.Add(context.Background(), line("p1", "M", "#000000", 20, 3)))
	// Same identity, different snapshot price: first-add price wins.
	require.NoError(t, sut.Add(context.Background(), line("p1", "M", "#000000", 99, -5)))

	items := sut.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 6, items[0].Qty, "2 + 3 + normalized(-5 -> 1)")
	assert.True(t, items[0].UnitPrice.Equal(decimal.NewFromInt(20)))
}

func TestAdd_DistinctVariantsAppendInOrder(t *testing.T) {
	sut, err := NewService(context.Background(), newMockStore())
	require.NoError(t, err)

	require.NoError(t, sut.Add(context.Background(), line("p1", "M", "#000000", 20, 1)))
	require.NoError(t, sut.Add(context.Background(), line("p1", "L", "#000000", 20, 1)))
	require.NoError(t, sut.Add(context.Background(), line("p1", "M", "#ff0000", 20, 1)))
	require.NoError(t, sut.Add(context.Background(), line("p2", "M", "#000000", 35, 1)))

	items := sut.Items()
	require.Len(t, items, 4)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, "L", items[1].Size)
	assert.Equal(t, "#ff0000", items[2].ColorHex)
	assert.Equal(t, "p2", items[3].ProductID)
}

func TestAdd_NormalizesQuantity(t *testing.T) {
	sut, err := NewService(context.Background(), newMockStore())
	require.NoError(t, err)

	require.NoError(t, sut.Add(context.Background(), line("p1", "M", "#000000", 20, 0)))
	items := sut.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Qty)
}

func TestAdd_WritesThrough(t *testing.T) {
	ms := newMockStore()
	sut, err := NewService(context.Background(), ms)
	require.NoError(t, err)

	require.NoError(t, sut.Add(context.Background(), line("p1", "M", "#000000", 20, 2)))
	assert.Equal(t, 1, ms.setCount())

	persisted := ms.persisted(t)
	require.Len(t, persisted, 1)
	assert.Equal(t, "p1", persisted[0].ProductID)
	assert.Equal(t, 2, persisted[0].Qty)
}

func TestAdd_PersistFailurePropagates(t *testing.T) {
	ms := newMockStore()
	sut, err := NewService(context.Background(), ms)
	require.NoError(t, err)

	ms.err = fmt.Errorf("store down")
	errAdd := sut.Add(context.Background(), line("p1", "M", "#000000", 20, 1))
	require.ErrorContains(t, errAdd, "store down")
}

func TestQuickAdd_UsesFirstDeclaredVariant(t *testing.T) {
	sut, err := NewService(context.Background(), newMockStore())
	require.NoError(t, err)

	p := domain.Product{
		ID: "p1", Name: "Alpine Jacket", Price: decimal.NewFromInt(120),
		Sizes:  []string{"S", "M"},
		Colors: []domain.ColorSwatch{{Name: "Red", Hex: "#ff0000"}, {Name: "Black", Hex: "#000000"}},
	}
	require.NoError(t, sut.QuickAdd(context.Background(), p))

	items := sut.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "S", items[0].Size)
	assert.Equal(t, "#ff0000", items[0].ColorHex)
	assert.Equal(t, "Red", items[0].ColorName)
	assert.Equal(t, 1, items[0].Qty)
	assert.True(t, items[0].UnitPrice.Equal(decimal.NewFromInt(120)))
}

func TestQuickAdd_FallsBackToDefaults(t *testing.T) {
	sut, err := NewService(context.Background(), newMockStore())
	require.NoError(t, err)

	p := domain.Product{ID: "p1", Name: "Bare", Price: decimal.NewFromInt(10)}
	require.NoError(t, sut.QuickAdd(context.Background(), p))

	items := sut.Items()
	require.Len(t, items, 1)
	assert.Equal(t, domain.DefaultSize, items[0].Size)
	assert.Equal(t, domain.DefaultSwatch.Hex, items[0].ColorHex)
	assert.Equal(t, domain.DefaultSwatch.Name, items[0].ColorName)
}

func TestQuickAdd_MergesWithItself(t *testing.T) {
	sut, err := NewService(context.Background(), newMockStore())
	require.NoError(t, err)

	p := domain.Product{ID: "p1", Name: "Bare", Price: decimal.NewFromInt(10)}
	require.NoError(t, sut.QuickAdd(context.Background(), p))
	require.NoError(t, sut.QuickAdd(context.Background(), p))

	items := sut.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Qty)
}

func TestRemove_ByIndex(t *testing.T) {
	sut, err := NewService(context.Background(), newMockStore())
	require.NoError(t, err)

	require.NoError(t, sut.Add(context.Background(), line("p1", "M", "#000000", 20, 1)))
	require.NoError(t, sut.Add(context.Background(), line("p2", "M", "#000000", 30, 1)))
	require.NoError(t, sut.Remove(context.Background(), 0))

	items := sut.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p2", items[0].ProductID)
}

func TestRemove_OutOfRangeIsNoOp(t *testing.T) {
	ms := newMockStore()
	sut, err := NewService(context.Background(), ms)
	require.NoError(t, err)

	require.NoError(t, sut.Add(context.Background(), line("p1", "M", "#000000", 20, 1)))
	require.NoError(t, sut.Add(context.Background(), line("p2", "M", "#000000", 30, 1)))
	setsBefore := ms.setCount()

	require.NoError(t, sut.Remove(context.Background(), 99))
	require.NoError(t, sut.Remove(context.Background(), -1))

	assert.Len(t, sut.Items(), 2)
	assert.Equal(t, setsBefore, ms.setCount(), "no-op must not rewrite the store")
}

func TestClear(t *testing.T) {
	ms := newMockStore()
	sut, err := NewService(context.Background(), ms)
	require.NoError(t, err)

	require.NoError(t, sut.Add(context.Background(), line("p1", "M", "#000000", 20, 3)))
	require.NoError(t, sut.Clear(context.Background()))

	assert.Empty(t, sut.Items())
	assert.Equal(t, 0, sut.TotalItemCount())
	assert.Empty(t, ms.persisted(t))
}

func TestTotalItemCount(t *testing.T) {
	sut, err := NewService(context.Background(), newMockStore())
	require.NoError(t, err)
	assert.Equal(t, 0, sut.TotalItemCount())

	require.NoError(t, sut.Add(context.Background(), line("p1", "M", "#000000", 20, 3)))
	require.NoError(t, sut.Add(context.Background(), line("p2", "M", "#000000", 30, 2)))
	assert.Equal(t, 5, sut.TotalItemCount())
}

func TestNewService_RestoresPersistedLedger(t *testing.T) {
	ms := newMockStore()
	first, err := NewService(context.Background(), ms)
	require.NoError(t, err)
	require.NoError(t, first.Add(context.Background(), line("p1", "M", "#000000", 20, 2)))

	// A new session over the same store sees the same ledger.
	second, err := NewService(context.Background(), ms)
	require.NoError(t, err)
	items := second.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, 2, items[0].Qty)
}

func TestNewService_CorruptLedgerStartsEmpty(t *testing.T) {
	ms := newMockStore()
	ms.data["minishop-cart"] = []byte("{broken")

	sut, err := NewService(context.Background(), ms)
	require.NoError(t, err)
	assert.Empty(t, sut.Items())

	_, ok := ms.data["minishop-cart"]
	assert.False(t, ok, "corrupt entry must be cleared")
}

func TestCheckout(t *testing.T) {
	ms := newMockStore()
	sut, err := NewService(context.Background(), ms)
	require.NoError(t, err)

	require.NoError(t, sut.Add(context.Background(), line("p1", "M", "#000000", 20, 1)))
	orderID, err := sut.Checkout(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, orderID)
	assert.Empty(t, sut.Items())

	_, ok := ms.data["minishop-cart"]
	assert.False(t, ok, "persisted cart must be deleted on checkout")
}

func TestCheckout_EmptyCart(t *testing.T) {
	sut, err := NewService(context.Background(), newMockStore())
	require.NoError(t, err)

	_, errCheckout := sut.Checkout(context.Background())
	assert.ErrorIs(t, errCheckout, ErrEmptyCart)
}
