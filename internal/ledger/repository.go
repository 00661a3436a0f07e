package ledger

import "context"

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetItem(ctx context.Context, id int64) (StockItem, error)
	QueryLowStock(ctx context.Context) ([]StockItem, error)
}

// TxRepository exposes the row-locked operations a quantity mutation needs.
// Settlement reuses it inside its own transaction via NewTxRepository.
type TxRepository interface {
	GetItemForUpdate(ctx context.Context, id int64) (StockItem, error)
	UpdateQuantity(ctx context.Context, id, quantity int64) error
	InsertMovement(ctx context.Context, movement Movement) (int64, error)
}
