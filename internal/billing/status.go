package billing

import (
	"fmt"

	"github.com/meridian-erp/meridian-erp/internal/money"
)

// DerivePaymentStatus maps accumulated payment to a document's payment
// status. It is pure: transitions only happen when a caller stores a new
// (amountPaid, amountToPay) pair. Overpayment is not a valid input; refund
// semantics are deliberately not inferred here.
func DerivePaymentStatus(amountPaid, amountToPay money.Amount) (DocumentStatus, error) {
	if amountPaid < 0 {
		return "", ErrNegativePayment
	}
	if amountPaid > amountToPay {
		return "", fmt.Errorf("%w (paid %d, to pay %d)", ErrOverpayment, amountPaid, amountToPay)
	}
	switch {
	case amountPaid == 0:
		return StatusUnpaid, nil
	case amountPaid < amountToPay:
		return StatusPartial, nil
	default:
		return StatusPaid, nil
	}
}

// workflowTransitions lists the legal moves for quotations and proformas.
var workflowTransitions = map[DocumentStatus][]DocumentStatus{
	StatusDraft: {StatusSent},
	StatusSent:  {StatusAccepted, StatusRejected},
}

func canTransition(from, to DocumentStatus) bool {
	for _, next := range workflowTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
