package settlement

import (
	"context"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*Sale, error)
}

// TxRepository spans the whole settlement unit: sale rows and the stock
// decrements share one transaction, so a failed decrement rolls back the
// staged sale as well.
type TxRepository interface {
	CustomerExists(ctx context.Context, customerID int64) (bool, error)
	InsertSale(ctx context.Context, sale Sale) (int64, error)
	InsertSaleItem(ctx context.Context, item SaleItem) (int64, error)
	Ledger() ledger.TxRepository
}
