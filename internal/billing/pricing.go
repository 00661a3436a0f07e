package billing

import (
	"fmt"

	"github.com/meridian-erp/meridian-erp/internal/money"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// PriceLines computes the stored price of each requested line and the
// document total in one pass. All inputs are validated before anything is
// priced, so a bad line rejects the whole set.
func PriceLines(inputs []LineInput) ([]LineItem, money.Amount, error) {
	if len(inputs) == 0 {
		return nil, 0, fmt.Errorf("billing: at least one line item required: %w", shared.ErrValidation)
	}
	lines := make([]LineItem, 0, len(inputs))
	for i, input := range inputs {
		price, err := money.PriceLine(input.Qty, input.UnitPrice, input.DiscountPct)
		if err != nil {
			return nil, 0, fmt.Errorf("billing: line %d: %w", i+1, err)
		}
		lines = append(lines, LineItem{
			ProductID:   input.ProductID,
			Qty:         input.Qty,
			UnitPrice:   input.UnitPrice,
			DiscountPct: input.DiscountPct,
			Price:       price,
			Notes:       input.Notes,
			LineOrder:   i + 1,
		})
	}
	return lines, DocumentTotal(lines), nil
}

// DocumentTotal sums line prices into the document-level amount.
func DocumentTotal(lines []LineItem) money.Amount {
	var total money.Amount
	for _, line := range lines {
		total += line.Price
	}
	return total
}
