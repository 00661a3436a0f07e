package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository persists sales in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction. The
// same pgx.Tx backs both the sale writes and the ledger operations, so a
// rollback undoes every side effect of the settlement unit.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("settlement repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// Get reads one sale and its items.
func (r *Repository) Get(ctx context.Context, id int64) (*Sale, error) {
	var sale Sale
	err := r.pool.QueryRow(ctx, `SELECT id, number, customer_id, sale_date, total_price, created_at FROM sales WHERE id=$1`, id).
		Scan(&sale.ID, &sale.Number, &sale.CustomerID, &sale.SaleDate, &sale.TotalPrice, &sale.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("settlement: sale %d: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `SELECT id, sale_id, stock_item_id, qty, unit_price, total_price, quantity_after
FROM sale_items WHERE sale_id=$1 ORDER BY id ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var item SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.StockItemID, &item.Qty, &item.UnitPrice, &item.TotalPrice, &item.QuantityAfter); err != nil {
			return nil, err
		}
		sale.Items = append(sale.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *txRepository) CustomerExists(ctx context.Context, customerID int64) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id=$1)`, customerID).Scan(&exists)
	return exists, err
}

func (r *txRepository) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO sales (number, customer_id, sale_date, total_price, created_at)
VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		sale.Number, sale.CustomerID, sale.SaleDate, sale.TotalPrice, sale.CreatedAt).Scan(&id)
	return id, err
}

func (r *txRepository) InsertSaleItem(ctx context.Context, item SaleItem) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO sale_items (sale_id, stock_item_id, qty, unit_price, total_price, quantity_after)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		item.SaleID, item.StockItemID, item.Qty, item.UnitPrice, item.TotalPrice, item.QuantityAfter).Scan(&id)
	return id, err
}

func (r *txRepository) Ledger() ledger.TxRepository {
	return ledger.NewTxRepository(r.tx)
}
