package billing

import (
	"context"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/money"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*Document, error)
	ListExpiring(ctx context.Context, from, to time.Time) ([]Document, error)
}

// TxRepository exposes transactional operations used by service. A line-item
// replacement and its total/status update commit as one unit through it.
type TxRepository interface {
	GetDocumentForUpdate(ctx context.Context, id int64) (Document, error)
	CustomerExists(ctx context.Context, customerID int64) (bool, error)
	ProductExists(ctx context.Context, productID int64) (bool, error)
	InsertDocument(ctx context.Context, doc Document) (int64, error)
	InsertLine(ctx context.Context, line LineItem) (int64, error)
	DeleteLines(ctx context.Context, documentID int64) error
	UpdateTotal(ctx context.Context, documentID int64, amountToPay money.Amount, status DocumentStatus) error
	UpdateAmountPaid(ctx context.Context, documentID int64, amountPaid money.Amount, status DocumentStatus) error
	UpdateStatus(ctx context.Context, documentID int64, status DocumentStatus) error
	CountLines(ctx context.Context, documentID int64) (int64, error)
	CountChildren(ctx context.Context, documentID int64) (int64, error)
	DeleteDocument(ctx context.Context, documentID int64) error
}
