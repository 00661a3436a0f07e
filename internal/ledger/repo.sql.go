package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository persists stock items in PostgreSQL.
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

// NewTxRepository wraps an open transaction so other modules can run ledger
// operations inside their own atomic unit.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("ledger repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const stockItemColumns = `id, product_id, supplier_id, quantity, reorder_level, min_level, status, created_at, updated_at`

// GetItem reads one stock item without locking.
func (r *Repository) GetItem(ctx context.Context, id int64) (StockItem, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+stockItemColumns+` FROM stock_items WHERE id=$1`, id)
	return scanStockItem(row)
}

// QueryLowStock lists active items at or below their reorder level or the
// absolute floor, ordered ascending by quantity then reorder level.
func (r *Repository) QueryLowStock(ctx context.Context) ([]StockItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+stockItemColumns+`
FROM stock_items
WHERE status=$1 AND (quantity <= $2 OR (reorder_level > 0 AND quantity <= reorder_level))
ORDER BY quantity ASC, reorder_level ASC, id ASC`, string(ItemStatusActive), lowStockFloor)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []StockItem{}
	for rows.Next() {
		item, err := scanStockItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *txRepository) GetItemForUpdate(ctx context.Context, id int64) (StockItem, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+stockItemColumns+` FROM stock_items WHERE id=$1 FOR UPDATE`, id)
	return scanStockItem(row)
}

func (r *txRepository) UpdateQuantity(ctx context.Context, id, quantity int64) error {
	tag, err := r.tx.Exec(ctx, `UPDATE stock_items SET quantity=$2, updated_at=NOW() WHERE id=$1`, id, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ledger: stock item %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *txRepository) InsertMovement(ctx context.Context, movement Movement) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO stock_movements (stock_item_id, movement_type, qty, quantity_after, ref_module, ref_id, note, posted_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		movement.StockItemID, string(movement.Type), movement.Qty, movement.QuantityAfter,
		movement.RefModule, nullString(movement.RefID), movement.Note, movement.PostedAt).Scan(&id)
	return id, err
}

func scanStockItem(row pgx.Row) (StockItem, error) {
	var item StockItem
	err := row.Scan(&item.ID, &item.ProductID, &item.SupplierID, &item.Quantity, &item.ReorderLevel, &item.MinLevel, &item.Status, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockItem{}, ErrItemNotFound
		}
		return StockItem{}, err
	}
	return item, nil
}

func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
