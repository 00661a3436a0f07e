package billing

import (
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/money"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// DocumentKind enumerates billing document kinds.
type DocumentKind string

const (
	KindInvoice   DocumentKind = "INVOICE"
	KindProforma  DocumentKind = "PROFORMA"
	KindQuotation DocumentKind = "QUOTATION"
)

// PaymentBearing reports whether documents of this kind accumulate payments
// and carry a derived payment status.
func (k DocumentKind) PaymentBearing() bool {
	return k == KindInvoice
}

func (k DocumentKind) valid() bool {
	switch k {
	case KindInvoice, KindProforma, KindQuotation:
		return true
	}
	return false
}

// DocumentStatus is the status vocabulary. Invoices use the payment statuses;
// quotations and proforma invoices use the workflow statuses.
type DocumentStatus string

const (
	StatusUnpaid  DocumentStatus = "UNPAID"
	StatusPartial DocumentStatus = "PARTIAL"
	StatusPaid    DocumentStatus = "PAID"

	StatusDraft    DocumentStatus = "DRAFT"
	StatusSent     DocumentStatus = "SENT"
	StatusAccepted DocumentStatus = "ACCEPTED"
	StatusRejected DocumentStatus = "REJECTED"
)

// Document generalizes invoice, proforma invoice and quotation: a priced,
// ordered collection of line items against a customer. The stored total is
// never observable out of sync with the stored lines.
type Document struct {
	ID          int64          `json:"id"`
	Kind        DocumentKind   `json:"kind"`
	Number      string         `json:"number"`
	CustomerID  int64          `json:"customer_id"`
	CompanyID   *int64         `json:"company_id,omitempty"`
	ParentID    *int64         `json:"parent_id,omitempty"`
	StartDate   *time.Time     `json:"start_date,omitempty"`
	EndDate     *time.Time     `json:"end_date,omitempty"`
	ValidUntil  *time.Time     `json:"valid_until,omitempty"`
	AmountToPay money.Amount   `json:"amount_to_pay"`
	AmountPaid  money.Amount   `json:"amount_paid"`
	Status      DocumentStatus `json:"status"`
	Notes       *string        `json:"notes,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Lines       []LineItem     `json:"lines,omitempty"`
}

// LineItem is one priced product entry on a billing document. Price is
// qty*unitPrice*(1-discountPct/100), rounded once.
type LineItem struct {
	ID          int64        `json:"id"`
	DocumentID  int64        `json:"document_id"`
	ProductID   int64        `json:"product_id"`
	Qty         int64        `json:"qty"`
	UnitPrice   money.Amount `json:"unit_price"`
	DiscountPct float64      `json:"discount_pct"`
	Price       money.Amount `json:"price"`
	Notes       *string      `json:"notes,omitempty"`
	LineOrder   int          `json:"line_order"`
}

// LineInput describes a requested line before pricing.
type LineInput struct {
	ProductID   int64        `json:"product_id" validate:"required,gt=0"`
	Qty         int64        `json:"qty" validate:"required,gt=0"`
	UnitPrice   money.Amount `json:"unit_price" validate:"gte=0"`
	DiscountPct float64      `json:"discount_pct" validate:"gte=0,lte=100"`
	Notes       *string      `json:"notes,omitempty"`
}

// Sentinel errors.
var (
	ErrDocumentNotFound = fmt.Errorf("billing: document: %w", shared.ErrNotFound)
	ErrProductNotFound  = fmt.Errorf("billing: product: %w", shared.ErrNotFound)
	ErrCustomerNotFound = fmt.Errorf("billing: customer: %w", shared.ErrNotFound)
	ErrOverpayment      = fmt.Errorf("billing: amount paid exceeds amount to pay: %w", shared.ErrValidation)
	ErrNegativePayment  = fmt.Errorf("billing: amount paid must be >= 0: %w", shared.ErrValidation)
	ErrNotPaymentKind   = fmt.Errorf("billing: document kind does not accept payments: %w", shared.ErrValidation)
	ErrInvalidStatus    = fmt.Errorf("billing: invalid status transition: %w", shared.ErrConflict)
	ErrHasDependents    = fmt.Errorf("billing: document still has line items or children: %w", shared.ErrConflict)
)
