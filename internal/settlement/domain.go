package settlement

import (
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/money"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Sale is one settled transaction: the sale record and its stock
// decrements commit together or not at all. Sales are immutable once
// committed.
type Sale struct {
	ID         int64        `json:"id"`
	Number     string       `json:"number"`
	CustomerID int64        `json:"customer_id"`
	SaleDate   time.Time    `json:"sale_date"`
	TotalPrice money.Amount `json:"total_price"`
	CreatedAt  time.Time    `json:"created_at"`
	Items      []SaleItem   `json:"items"`
}

// SaleItem is one stock line on a sale. QuantityAfter carries the
// post-decrement stock level observed inside the settlement unit.
type SaleItem struct {
	ID            int64        `json:"id"`
	SaleID        int64        `json:"sale_id"`
	StockItemID   int64        `json:"stock_item_id"`
	Qty           int64        `json:"qty"`
	UnitPrice     money.Amount `json:"unit_price"`
	TotalPrice    money.Amount `json:"total_price"`
	QuantityAfter int64        `json:"quantity_after"`
}

// CreateSaleInput describes a requested sale.
type CreateSaleInput struct {
	CustomerID     int64
	SaleDate       time.Time
	Items          []SaleItemInput
	IdempotencyKey string
	ActorID        int64
}

// SaleItemInput is one requested sale line before pricing.
type SaleItemInput struct {
	StockItemID int64        `json:"stock_item_id" validate:"required,gt=0"`
	Qty         int64        `json:"qty" validate:"required,gt=0"`
	UnitPrice   money.Amount `json:"unit_price" validate:"gte=0"`
}

// Sentinel errors.
var (
	ErrCustomerRequired = fmt.Errorf("settlement: customer required: %w", shared.ErrValidation)
	ErrSaleDateRequired = fmt.Errorf("settlement: sale date required: %w", shared.ErrValidation)
	ErrNoItems          = fmt.Errorf("settlement: at least one sale item required: %w", shared.ErrValidation)
	ErrCustomerNotFound = fmt.Errorf("settlement: customer: %w", shared.ErrNotFound)
)
