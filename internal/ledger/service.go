package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates stock quantity mutations and low-stock queries.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// MovementRef ties a movement back to the operation that caused it.
type MovementRef struct {
	Module string
	ID     string
	Note   string
}

// Decrement subtracts qty from a stock item inside the given transaction.
// The item row is locked for the duration, so the quantity check and the
// update are atomic per item. Fails without side effect when current
// quantity < qty.
func Decrement(ctx context.Context, tx TxRepository, itemID, qty int64, ref MovementRef) (int64, error) {
	if qty <= 0 {
		return 0, ErrInvalidQuantity
	}
	item, err := tx.GetItemForUpdate(ctx, itemID)
	if err != nil {
		return 0, err
	}
	if item.Quantity < qty {
		return 0, fmt.Errorf("ledger: stock item %d holds %d, requested %d: %w", itemID, item.Quantity, qty, shared.ErrInsufficientStock)
	}
	newQty := item.Quantity - qty
	if err := tx.UpdateQuantity(ctx, itemID, newQty); err != nil {
		return 0, err
	}
	movement := Movement{
		StockItemID:   itemID,
		Type:          MovementOut,
		Qty:           qty,
		QuantityAfter: newQty,
		RefModule:     ref.Module,
		RefID:         ref.ID,
		Note:          ref.Note,
		PostedAt:      time.Now().UTC(),
	}
	if _, err := tx.InsertMovement(ctx, movement); err != nil {
		return 0, err
	}
	return newQty, nil
}

// Increment adds qty to a stock item inside the given transaction. There is
// no upper bound on restock.
func Increment(ctx context.Context, tx TxRepository, itemID, qty int64, ref MovementRef) (int64, error) {
	if qty <= 0 {
		return 0, ErrInvalidQuantity
	}
	item, err := tx.GetItemForUpdate(ctx, itemID)
	if err != nil {
		return 0, err
	}
	newQty := item.Quantity + qty
	if err := tx.UpdateQuantity(ctx, itemID, newQty); err != nil {
		return 0, err
	}
	movement := Movement{
		StockItemID:   itemID,
		Type:          MovementIn,
		Qty:           qty,
		QuantityAfter: newQty,
		RefModule:     ref.Module,
		RefID:         ref.ID,
		Note:          ref.Note,
		PostedAt:      time.Now().UTC(),
	}
	if _, err := tx.InsertMovement(ctx, movement); err != nil {
		return 0, err
	}
	return newQty, nil
}

// Decrement runs a stand-alone decrement in its own transaction and returns
// the new quantity.
func (s *Service) Decrement(ctx context.Context, itemID, qty int64, ref MovementRef) (int64, error) {
	var newQty int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		newQty, err = Decrement(ctx, tx, itemID, qty, ref)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.recordAudit(ctx, "ledger:decrement", itemID, qty, newQty)
	return newQty, nil
}

// Increment runs a stand-alone restock in its own transaction.
func (s *Service) Increment(ctx context.Context, itemID, qty int64, ref MovementRef) (int64, error) {
	var newQty int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		newQty, err = Increment(ctx, tx, itemID, qty, ref)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.recordAudit(ctx, "ledger:increment", itemID, qty, newQty)
	return newQty, nil
}

// GetItem returns the current state of one stock item.
func (s *Service) GetItem(ctx context.Context, itemID int64) (StockItem, error) {
	if itemID <= 0 {
		return StockItem{}, fmt.Errorf("ledger: item id required: %w", shared.ErrValidation)
	}
	return s.repo.GetItem(ctx, itemID)
}

// QueryLowStock lists active items needing replenishment, lowest quantity
// first. Results are computed against current state on every call.
func (s *Service) QueryLowStock(ctx context.Context) ([]StockItem, error) {
	return s.repo.QueryLowStock(ctx)
}

func (s *Service) recordAudit(ctx context.Context, action string, itemID, qty, newQty int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "stock_item",
		EntityID: fmt.Sprintf("%d", itemID),
		Meta: map[string]any{
			"qty":          qty,
			"new_quantity": newQty,
		},
	})
}
