package billing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/money"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

func TestPriceLines(t *testing.T) {
	lines, total, err := PriceLines([]LineInput{
		{ProductID: 1, Qty: 3, UnitPrice: 25000, DiscountPct: 10},
		{ProductID: 2, Qty: 2, UnitPrice: 1000},
	})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.Equal(t, money.Amount(67500), lines[0].Price)
	require.Equal(t, money.Amount(2000), lines[1].Price)
	require.Equal(t, money.Amount(69500), total)
	require.Equal(t, 1, lines[0].LineOrder)
	require.Equal(t, 2, lines[1].LineOrder)
}

func TestPriceLinesRejectsBadInput(t *testing.T) {
	_, _, err := PriceLines(nil)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, _, err = PriceLines([]LineInput{{ProductID: 1, Qty: 0, UnitPrice: 100}})
	require.ErrorIs(t, err, money.ErrInvalidQuantity)

	_, _, err = PriceLines([]LineInput{{ProductID: 1, Qty: 1, UnitPrice: 100, DiscountPct: 101}})
	require.ErrorIs(t, err, money.ErrDiscountRange)

	// One bad line poisons the whole set.
	_, _, err = PriceLines([]LineInput{
		{ProductID: 1, Qty: 1, UnitPrice: 100},
		{ProductID: 2, Qty: 1, UnitPrice: -5},
	})
	require.ErrorIs(t, err, money.ErrNegativePrice)
}

func TestDocumentTotal(t *testing.T) {
	require.Equal(t, money.Amount(0), DocumentTotal(nil))
	require.Equal(t, money.Amount(300), DocumentTotal([]LineItem{{Price: 100}, {Price: 200}}))
}
