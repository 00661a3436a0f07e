package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/billing"
	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type fakeLedger struct {
	items []ledger.StockItem
	calls int
}

func (f *fakeLedger) QueryLowStock(ctx context.Context) ([]ledger.StockItem, error) {
	f.calls++
	return f.items, nil
}

type fakeBilling struct {
	docs []billing.Document
	from time.Time
	to   time.Time
}

func (f *fakeBilling) ListExpiring(ctx context.Context, from, to time.Time) ([]billing.Document, error) {
	f.from, f.to = from, to
	var out []billing.Document
	for _, doc := range f.docs {
		if doc.EndDate == nil {
			continue
		}
		if doc.EndDate.Before(from) || doc.EndDate.After(to) {
			continue
		}
		out = append(out, doc)
	}
	return out, nil
}

func fixedNow() time.Time {
	return time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
}

func datePtr(t time.Time) *time.Time { return &t }

func newTestService(ledgerPort LedgerPort, billingPort BillingPort) *Service {
	svc := NewService(ledgerPort, billingPort)
	svc.now = fixedNow
	return svc
}

func TestLowStockIdempotent(t *testing.T) {
	fl := &fakeLedger{items: []ledger.StockItem{{ID: 2, Quantity: 1}, {ID: 1, Quantity: 4}}}
	svc := newTestService(fl, &fakeBilling{})

	first, err := svc.LowStock(context.Background())
	require.NoError(t, err)
	second, err := svc.LowStock(context.Background())
	require.NoError(t, err)

	// Read-only: same state in, same report out.
	require.Equal(t, first.Items, second.Items)
	require.Equal(t, 2, fl.calls)
}

func TestExpiringSoonWindow(t *testing.T) {
	fb := &fakeBilling{docs: []billing.Document{
		{ID: 1, EndDate: datePtr(fixedNow().AddDate(0, 0, 1))},
		{ID: 2, EndDate: datePtr(fixedNow().AddDate(0, 0, 5))},
		{ID: 3, EndDate: nil},
	}}
	svc := newTestService(&fakeLedger{}, fb)

	report, err := svc.ExpiringSoon(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, DefaultHorizonDays, report.HorizonDays)
	require.Len(t, report.Documents, 1)
	require.Equal(t, int64(1), report.Documents[0].ID)
	require.Equal(t, fixedNow(), fb.from)
	require.Equal(t, fixedNow().AddDate(0, 0, 3), fb.to)

	report, err = svc.ExpiringSoon(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, report.Documents, 2)

	_, err = svc.ExpiringSoon(context.Background(), -1)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestOverview(t *testing.T) {
	fl := &fakeLedger{items: []ledger.StockItem{{ID: 7, Quantity: 2}}}
	fb := &fakeBilling{docs: []billing.Document{
		{ID: 4, EndDate: datePtr(fixedNow().AddDate(0, 0, 2))},
	}}
	svc := newTestService(fl, fb)

	overview, err := svc.Overview(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, overview.LowStock, 1)
	require.Equal(t, int64(7), overview.LowStock[0].ID)
	require.Len(t, overview.Expiring, 1)
	require.Equal(t, int64(4), overview.Expiring[0].ID)
}
