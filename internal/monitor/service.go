package monitor

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/meridian-erp/meridian-erp/internal/billing"
	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// DefaultHorizonDays is the near-expiry lookahead used when the caller does
// not pick one.
const DefaultHorizonDays = 3

// LedgerPort is the slice of the stock ledger the monitors read.
type LedgerPort interface {
	QueryLowStock(ctx context.Context) ([]ledger.StockItem, error)
}

// BillingPort is the slice of billing the monitors read.
type BillingPort interface {
	ListExpiring(ctx context.Context, from, to time.Time) ([]billing.Document, error)
}

// Service answers read-only consistency questions over current state. Its
// reports take no locks and mutate nothing, so repeated calls against
// unchanged state return identical results.
type Service struct {
	ledger  LedgerPort
	billing BillingPort
	now     func() time.Time
}

// NewService builds Service.
func NewService(ledgerPort LedgerPort, billingPort BillingPort) *Service {
	return &Service{ledger: ledgerPort, billing: billingPort, now: time.Now}
}

// LowStockReport lists active items needing replenishment, most urgent first.
type LowStockReport struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Items       []ledger.StockItem `json:"items"`
}

// ExpiringReport lists invoices still owed money whose end date falls
// within the horizon.
type ExpiringReport struct {
	GeneratedAt time.Time          `json:"generated_at"`
	HorizonDays int                `json:"horizon_days"`
	Documents   []billing.Document `json:"documents"`
}

// Overview bundles both monitors in one response.
type Overview struct {
	LowStock []ledger.StockItem `json:"low_stock"`
	Expiring []billing.Document `json:"expiring"`
}

// LowStock reports items at or below their replenishment threshold.
func (s *Service) LowStock(ctx context.Context) (*LowStockReport, error) {
	items, err := s.ledger.QueryLowStock(ctx)
	if err != nil {
		return nil, err
	}
	return &LowStockReport{GeneratedAt: s.now().UTC(), Items: items}, nil
}

// ExpiringSoon reports invoices expiring within horizonDays from now.
// horizonDays 0 means the default horizon.
func (s *Service) ExpiringSoon(ctx context.Context, horizonDays int) (*ExpiringReport, error) {
	if horizonDays < 0 {
		return nil, fmt.Errorf("monitor: horizon must not be negative: %w", shared.ErrValidation)
	}
	if horizonDays == 0 {
		horizonDays = DefaultHorizonDays
	}
	now := s.now().UTC()
	docs, err := s.billing.ListExpiring(ctx, now, now.AddDate(0, 0, horizonDays))
	if err != nil {
		return nil, err
	}
	return &ExpiringReport{GeneratedAt: now, HorizonDays: horizonDays, Documents: docs}, nil
}

// Overview runs both monitors concurrently and returns their combined view.
func (s *Service) Overview(ctx context.Context, horizonDays int) (*Overview, error) {
	var overview Overview
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		report, err := s.LowStock(ctx)
		if err != nil {
			return err
		}
		overview.LowStock = report.Items
		return nil
	})
	g.Go(func() error {
		report, err := s.ExpiringSoon(ctx, horizonDays)
		if err != nil {
			return err
		}
		overview.Expiring = report.Documents
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &overview, nil
}
