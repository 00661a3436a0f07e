package billing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/money"
)

func TestDerivePaymentStatus(t *testing.T) {
	cases := []struct {
		name    string
		paid    money.Amount
		toPay   money.Amount
		want    DocumentStatus
		wantErr error
	}{
		{"nothing paid", 0, 67500, StatusUnpaid, nil},
		{"partial", 30000, 67500, StatusPartial, nil},
		{"exactly paid", 67500, 67500, StatusPaid, nil},
		{"one unit short", 67499, 67500, StatusPartial, nil},
		{"zero total unpaid", 0, 0, StatusUnpaid, nil},
		{"overpaid", 67501, 67500, "", ErrOverpayment},
		{"negative paid", -1, 67500, "", ErrNegativePayment},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DerivePaymentStatus(tc.paid, tc.toPay)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestWorkflowTransitions(t *testing.T) {
	require.True(t, canTransition(StatusDraft, StatusSent))
	require.True(t, canTransition(StatusSent, StatusAccepted))
	require.True(t, canTransition(StatusSent, StatusRejected))

	require.False(t, canTransition(StatusDraft, StatusAccepted))
	require.False(t, canTransition(StatusAccepted, StatusSent))
	require.False(t, canTransition(StatusRejected, StatusSent))
	require.False(t, canTransition(StatusSent, StatusDraft))
}
