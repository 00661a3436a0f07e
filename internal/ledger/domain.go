package ledger

import (
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// ItemStatus enumerates stock item lifecycle states.
type ItemStatus string

const (
	ItemStatusActive   ItemStatus = "ACTIVE"
	ItemStatusInactive ItemStatus = "INACTIVE"
)

// MovementType enumerates stock movements.
type MovementType string

const (
	// MovementIn represents a restock.
	MovementIn MovementType = "IN"
	// MovementOut represents depletion, e.g. a settled sale.
	MovementOut MovementType = "OUT"
)

// lowStockFloor is the absolute quantity floor: items at or below it count
// as low regardless of their configured reorder level.
const lowStockFloor = 10

// StockItem is a trackable inventory unit. Quantity never goes negative
// after a committed mutation.
type StockItem struct {
	ID           int64      `json:"id"`
	ProductID    int64      `json:"product_id"`
	SupplierID   int64      `json:"supplier_id"`
	Quantity     int64      `json:"quantity"`
	ReorderLevel int64      `json:"reorder_level"`
	MinLevel     int64      `json:"min_level"`
	Status       ItemStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Movement records one committed quantity mutation on a stock item.
type Movement struct {
	ID            int64        `json:"id"`
	StockItemID   int64        `json:"stock_item_id"`
	Type          MovementType `json:"type"`
	Qty           int64        `json:"qty"`
	QuantityAfter int64        `json:"quantity_after"`
	RefModule     string       `json:"ref_module,omitempty"`
	RefID         string       `json:"ref_id,omitempty"`
	Note          string       `json:"note,omitempty"`
	PostedAt      time.Time    `json:"posted_at"`
}

// Sentinel errors.
var (
	ErrInvalidQuantity = fmt.Errorf("ledger: quantity must be a positive integer: %w", shared.ErrValidation)
	ErrItemNotFound    = fmt.Errorf("ledger: stock item: %w", shared.ErrNotFound)
)

// IsLow reports whether the item needs replenishment: at or below its
// reorder level (when one is set), or at or below the absolute floor.
func IsLow(item StockItem) bool {
	if item.ReorderLevel > 0 && item.Quantity <= item.ReorderLevel {
		return true
	}
	return item.Quantity <= lowStockFloor
}
