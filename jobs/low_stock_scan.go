package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/monitor"
)

// LowStockScanJob sweeps the stock ledger and raises an alert per item
// needing replenishment. Alerts are deduplicated per item.
type LowStockScanJob struct {
	Monitor *monitor.Service
	Alerts  *AlertDeduper
	Logger  *slog.Logger
}

// NewLowStockScanJob initialises the low-stock sweep handler.
func NewLowStockScanJob(monitorSvc *monitor.Service, alerts *AlertDeduper, logger *slog.Logger) *LowStockScanJob {
	return &LowStockScanJob{Monitor: monitorSvc, Alerts: alerts, Logger: logger}
}

// Handle executes the sweep.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Monitor == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	start := time.Now()
	logger := j.logger()
	logger.Info("starting low stock scan")

	report, err := j.Monitor.LowStock(ctx)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}

	alerted := 0
	for _, item := range report.Items {
		fire, err := j.Alerts.ShouldAlert(ctx, "low_stock", item.ID)
		if err != nil {
			logger.Warn("alert dedupe check failed", slog.Int64("stock_item_id", item.ID), slog.Any("error", err))
			continue
		}
		if !fire {
			continue
		}
		alerted++
		logger.Warn("stock item below replenishment threshold",
			slog.Int64("stock_item_id", item.ID),
			slog.Int64("product_id", item.ProductID),
			slog.Int64("quantity", item.Quantity),
			slog.Int64("reorder_level", item.ReorderLevel),
		)
	}

	logger.Info("completed low stock scan",
		slog.Int("low_items", len(report.Items)),
		slog.Int("alerted", alerted),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeLowStockScan))
	}
	return slog.Default().With(slog.String("job", TaskTypeLowStockScan))
}
