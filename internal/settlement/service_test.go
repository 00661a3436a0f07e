package settlement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/money"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryRepo struct {
	mu         sync.Mutex
	customers  map[int64]bool
	stock      map[int64]ledger.StockItem
	sales      map[int64]Sale
	saleItems  map[int64][]SaleItem
	movements  []ledger.Movement
	nextSaleID int64
	nextItemID int64
	nextMoveID int64
}

type memoryTx struct {
	repo *memoryRepo
}

type memoryLedgerTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		customers: map[int64]bool{1: true},
		stock:     make(map[int64]ledger.StockItem),
		sales:     make(map[int64]Sale),
		saleItems: make(map[int64][]SaleItem),
	}
}

func (r *memoryRepo) seedStock(items ...ledger.StockItem) {
	for _, item := range items {
		r.stock[item.ID] = item
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stockSnap := make(map[int64]ledger.StockItem, len(r.stock))
	for id, item := range r.stock {
		stockSnap[id] = item
	}
	salesSnap := make(map[int64]Sale, len(r.sales))
	for id, sale := range r.sales {
		salesSnap[id] = sale
	}
	itemsSnap := make(map[int64][]SaleItem, len(r.saleItems))
	for id, items := range r.saleItems {
		itemsSnap[id] = append([]SaleItem(nil), items...)
	}
	movements := len(r.movements)
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.stock = stockSnap
		r.sales = salesSnap
		r.saleItems = itemsSnap
		r.movements = r.movements[:movements]
		return err
	}
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (*Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sale, ok := r.sales[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	sale.Items = append([]SaleItem(nil), r.saleItems[id]...)
	return &sale, nil
}

func (tx *memoryTx) CustomerExists(ctx context.Context, customerID int64) (bool, error) {
	return tx.repo.customers[customerID], nil
}

func (tx *memoryTx) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	tx.repo.nextSaleID++
	sale.ID = tx.repo.nextSaleID
	tx.repo.sales[sale.ID] = sale
	return sale.ID, nil
}

func (tx *memoryTx) InsertSaleItem(ctx context.Context, item SaleItem) (int64, error) {
	tx.repo.nextItemID++
	item.ID = tx.repo.nextItemID
	tx.repo.saleItems[item.SaleID] = append(tx.repo.saleItems[item.SaleID], item)
	return item.ID, nil
}

func (tx *memoryTx) Ledger() ledger.TxRepository {
	return &memoryLedgerTx{repo: tx.repo}
}

func (tx *memoryLedgerTx) GetItemForUpdate(ctx context.Context, id int64) (ledger.StockItem, error) {
	item, ok := tx.repo.stock[id]
	if !ok {
		return ledger.StockItem{}, ledger.ErrItemNotFound
	}
	return item, nil
}

func (tx *memoryLedgerTx) UpdateQuantity(ctx context.Context, id, quantity int64) error {
	item, ok := tx.repo.stock[id]
	if !ok {
		return ledger.ErrItemNotFound
	}
	item.Quantity = quantity
	tx.repo.stock[id] = item
	return nil
}

func (tx *memoryLedgerTx) InsertMovement(ctx context.Context, movement ledger.Movement) (int64, error) {
	tx.repo.nextMoveID++
	movement.ID = tx.repo.nextMoveID
	tx.repo.movements = append(tx.repo.movements, movement)
	return movement.ID, nil
}

type memoryIdempotency struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{keys: make(map[string]bool)}
}

func (s *memoryIdempotency) CheckAndInsert(ctx context.Context, key, module string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	s.keys[key] = true
	return nil
}

func (s *memoryIdempotency) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

func saleDate() time.Time {
	return time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
}

func TestCreateSale(t *testing.T) {
	repo := newMemoryRepo()
	repo.seedStock(
		ledger.StockItem{ID: 1, Quantity: 10, ReorderLevel: 3, Status: ledger.ItemStatusActive},
		ledger.StockItem{ID: 2, Quantity: 5, Status: ledger.ItemStatusActive},
	)
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	sale, err := svc.CreateSale(ctx, CreateSaleInput{
		CustomerID: 1,
		SaleDate:   saleDate(),
		Items: []SaleItemInput{
			{StockItemID: 1, Qty: 4, UnitPrice: 25000},
			{StockItemID: 2, Qty: 1, UnitPrice: 1000},
		},
	})
	require.NoError(t, err)
	require.NotZero(t, sale.ID)
	require.Equal(t, money.Amount(101000), sale.TotalPrice)
	require.Len(t, sale.Items, 2)
	require.Equal(t, money.Amount(100000), sale.Items[0].TotalPrice)
	require.Equal(t, int64(6), sale.Items[0].QuantityAfter)
	require.Equal(t, int64(4), sale.Items[1].QuantityAfter)

	require.Equal(t, int64(6), repo.stock[1].Quantity)
	require.Equal(t, int64(4), repo.stock[2].Quantity)
	require.Len(t, repo.movements, 2)
	require.Equal(t, "SETTLEMENT", repo.movements[0].RefModule)
	require.Equal(t, sale.Number, repo.movements[0].RefID)

	stored, err := svc.Get(ctx, sale.ID)
	require.NoError(t, err)
	require.Equal(t, sale.TotalPrice, stored.TotalPrice)
	require.Len(t, stored.Items, 2)
}

func TestCreateSaleInsufficientStockRollsBack(t *testing.T) {
	repo := newMemoryRepo()
	repo.seedStock(
		ledger.StockItem{ID: 1, Quantity: 10, Status: ledger.ItemStatusActive},
		ledger.StockItem{ID: 2, Quantity: 2, Status: ledger.ItemStatusActive},
	)
	svc := NewService(repo, nil, nil)

	_, err := svc.CreateSale(context.Background(), CreateSaleInput{
		CustomerID: 1,
		SaleDate:   saleDate(),
		Items: []SaleItemInput{
			{StockItemID: 1, Qty: 4, UnitPrice: 100},
			{StockItemID: 2, Qty: 3, UnitPrice: 100},
		},
	})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	// First decrement undone, nothing persisted.
	require.Equal(t, int64(10), repo.stock[1].Quantity)
	require.Equal(t, int64(2), repo.stock[2].Quantity)
	require.Empty(t, repo.sales)
	require.Empty(t, repo.movements)
}

func TestCreateSaleValidation(t *testing.T) {
	repo := newMemoryRepo()
	repo.seedStock(ledger.StockItem{ID: 1, Quantity: 10, Status: ledger.ItemStatusActive})
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.CreateSale(ctx, CreateSaleInput{SaleDate: saleDate(), Items: []SaleItemInput{{StockItemID: 1, Qty: 1}}})
	require.ErrorIs(t, err, ErrCustomerRequired)

	_, err = svc.CreateSale(ctx, CreateSaleInput{CustomerID: 1, Items: []SaleItemInput{{StockItemID: 1, Qty: 1}}})
	require.ErrorIs(t, err, ErrSaleDateRequired)

	_, err = svc.CreateSale(ctx, CreateSaleInput{CustomerID: 1, SaleDate: saleDate()})
	require.ErrorIs(t, err, ErrNoItems)

	_, err = svc.CreateSale(ctx, CreateSaleInput{CustomerID: 1, SaleDate: saleDate(), Items: []SaleItemInput{{StockItemID: 1, Qty: 0}}})
	require.ErrorIs(t, err, money.ErrInvalidQuantity)

	_, err = svc.CreateSale(ctx, CreateSaleInput{CustomerID: 1, SaleDate: saleDate(), Items: []SaleItemInput{{StockItemID: 1, Qty: 1, UnitPrice: -1}}})
	require.ErrorIs(t, err, money.ErrNegativePrice)

	_, err = svc.CreateSale(ctx, CreateSaleInput{CustomerID: 99, SaleDate: saleDate(), Items: []SaleItemInput{{StockItemID: 1, Qty: 1}}})
	require.ErrorIs(t, err, ErrCustomerNotFound)
	require.Equal(t, int64(10), repo.stock[1].Quantity)
}

func TestCreateSaleUnknownStockItem(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	_, err := svc.CreateSale(context.Background(), CreateSaleInput{
		CustomerID: 1,
		SaleDate:   saleDate(),
		Items:      []SaleItemInput{{StockItemID: 42, Qty: 1, UnitPrice: 100}},
	})
	require.ErrorIs(t, err, ledger.ErrItemNotFound)
	require.Empty(t, repo.sales)
}

func TestCreateSaleIdempotency(t *testing.T) {
	repo := newMemoryRepo()
	repo.seedStock(ledger.StockItem{ID: 1, Quantity: 10, Status: ledger.ItemStatusActive})
	idem := newMemoryIdempotency()
	svc := NewService(repo, nil, idem)
	ctx := context.Background()

	input := CreateSaleInput{
		CustomerID:     1,
		SaleDate:       saleDate(),
		Items:          []SaleItemInput{{StockItemID: 1, Qty: 2, UnitPrice: 100}},
		IdempotencyKey: "key-1",
	}
	_, err := svc.CreateSale(ctx, input)
	require.NoError(t, err)

	_, err = svc.CreateSale(ctx, input)
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	require.Equal(t, int64(8), repo.stock[1].Quantity)
	require.Len(t, repo.sales, 1)
}

func TestCreateSaleIdempotencyKeyFreedOnFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.seedStock(ledger.StockItem{ID: 1, Quantity: 1, Status: ledger.ItemStatusActive})
	idem := newMemoryIdempotency()
	svc := NewService(repo, nil, idem)
	ctx := context.Background()

	input := CreateSaleInput{
		CustomerID:     1,
		SaleDate:       saleDate(),
		Items:          []SaleItemInput{{StockItemID: 1, Qty: 5, UnitPrice: 100}},
		IdempotencyKey: "key-2",
	}
	_, err := svc.CreateSale(ctx, input)
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	require.False(t, idem.keys["key-2"])

	// Retry with a satisfiable quantity succeeds under the same key.
	input.Items[0].Qty = 1
	_, err = svc.CreateSale(ctx, input)
	require.NoError(t, err)
}

func TestConcurrentSalesNeverOversell(t *testing.T) {
	repo := newMemoryRepo()
	repo.seedStock(ledger.StockItem{ID: 1, Quantity: 10, Status: ledger.ItemStatusActive})
	svc := NewService(repo, nil, nil)

	const attempts = 25
	var (
		mu        sync.Mutex
		succeeded int
	)
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < attempts; i++ {
		g.Go(func() error {
			_, err := svc.CreateSale(ctx, CreateSaleInput{
				CustomerID: 1,
				SaleDate:   saleDate(),
				Items:      []SaleItemInput{{StockItemID: 1, Qty: 3, UnitPrice: 100}},
			})
			if err != nil {
				if errors.Is(err, shared.ErrInsufficientStock) {
					return nil
				}
				return err
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	// 10 units, 3 per sale: exactly 3 sales can settle.
	require.Equal(t, 3, succeeded)
	require.Equal(t, int64(1), repo.stock[1].Quantity)
	require.Len(t, repo.sales, 3)
	require.Len(t, repo.movements, 3)
}
