package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/money"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort guards against duplicate settlement submissions.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// MetricsPort counts settlement outcomes.
type MetricsPort interface {
	SaleSettled()
	SaleRejected(reason string)
}

// Service coordinates sale settlement: each sale commits together with its
// stock decrements, or not at all.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency IdempotencyPort
	metrics     MetricsPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, idempotency IdempotencyPort) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idempotency}
}

// WithMetrics attaches outcome counters.
func (s *Service) WithMetrics(metrics MetricsPort) *Service {
	s.metrics = metrics
	return s
}

// CreateSale runs the settlement unit. All items are validated before any
// state changes; pricing uses exact minor-unit multiplication; the sale
// record and every stock decrement share one transaction. Any failed
// decrement rolls the whole sale back.
func (s *Service) CreateSale(ctx context.Context, input CreateSaleInput) (*Sale, error) {
	if input.CustomerID <= 0 {
		return nil, ErrCustomerRequired
	}
	if input.SaleDate.IsZero() {
		return nil, ErrSaleDateRequired
	}
	if len(input.Items) == 0 {
		return nil, ErrNoItems
	}
	for i, item := range input.Items {
		if item.StockItemID <= 0 {
			return nil, fmt.Errorf("settlement: item %d: stock item id required: %w", i+1, shared.ErrValidation)
		}
		if item.Qty <= 0 {
			return nil, fmt.Errorf("settlement: item %d: %w", i+1, money.ErrInvalidQuantity)
		}
		if item.UnitPrice < 0 {
			return nil, fmt.Errorf("settlement: item %d: %w", i+1, money.ErrNegativePrice)
		}
	}

	if s.idempotency != nil && input.IdempotencyKey != "" {
		if err := s.idempotency.CheckAndInsert(ctx, input.IdempotencyKey, "settlement"); err != nil {
			return nil, err
		}
	}

	sale := Sale{
		Number:     saleNumber(),
		CustomerID: input.CustomerID,
		SaleDate:   input.SaleDate,
		CreatedAt:  time.Now().UTC(),
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ok, err := tx.CustomerExists(ctx, input.CustomerID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCustomerNotFound
		}

		var total money.Amount
		items := make([]SaleItem, 0, len(input.Items))
		for _, in := range input.Items {
			linePrice, err := money.Multiply(in.Qty, in.UnitPrice)
			if err != nil {
				return err
			}
			total += linePrice
			items = append(items, SaleItem{
				StockItemID: in.StockItemID,
				Qty:         in.Qty,
				UnitPrice:   in.UnitPrice,
				TotalPrice:  linePrice,
			})
		}
		sale.TotalPrice = total

		saleID, err := tx.InsertSale(ctx, sale)
		if err != nil {
			return err
		}
		sale.ID = saleID

		ref := ledger.MovementRef{Module: "SETTLEMENT", ID: sale.Number}
		for i := range items {
			items[i].SaleID = saleID
			newQty, err := ledger.Decrement(ctx, tx.Ledger(), items[i].StockItemID, items[i].Qty, ref)
			if err != nil {
				return err
			}
			items[i].QuantityAfter = newQty
			itemID, err := tx.InsertSaleItem(ctx, items[i])
			if err != nil {
				return err
			}
			items[i].ID = itemID
		}
		sale.Items = items
		return nil
	})
	if err != nil {
		// The transaction rolled back; the idempotency key must not block
		// a retry of the same request.
		if s.idempotency != nil && input.IdempotencyKey != "" && !errors.Is(err, shared.ErrIdempotencyConflict) {
			_ = s.idempotency.Delete(ctx, input.IdempotencyKey)
		}
		if s.metrics != nil {
			s.metrics.SaleRejected(rejectionReason(err))
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.SaleSettled()
	}
	s.recordAudit(ctx, input.ActorID, sale)
	return &sale, nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, shared.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, shared.ErrNotFound):
		return "not_found"
	case errors.Is(err, shared.ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}

// Get returns one committed sale with its items.
func (s *Service) Get(ctx context.Context, id int64) (*Sale, error) {
	if id <= 0 {
		return nil, fmt.Errorf("settlement: sale id required: %w", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, sale Sale) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "settlement:create_sale",
		Entity:   "sale",
		EntityID: fmt.Sprintf("%d", sale.ID),
		Meta: map[string]any{
			"number":      sale.Number,
			"customer_id": sale.CustomerID,
			"total_price": sale.TotalPrice,
			"item_count":  len(sale.Items),
		},
	})
}

func saleNumber() string {
	return "SAL-" + uuid.NewString()
}
