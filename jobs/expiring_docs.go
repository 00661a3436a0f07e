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

// ExpiringDocsJob sweeps billing for invoices still owed money whose end
// date falls within the horizon, raising one deduplicated alert per
// document.
type ExpiringDocsJob struct {
	Monitor *monitor.Service
	Alerts  *AlertDeduper
	Logger  *slog.Logger
}

// NewExpiringDocsJob initialises the near-expiry sweep handler.
func NewExpiringDocsJob(monitorSvc *monitor.Service, alerts *AlertDeduper, logger *slog.Logger) *ExpiringDocsJob {
	return &ExpiringDocsJob{Monitor: monitorSvc, Alerts: alerts, Logger: logger}
}

// Handle executes the sweep.
func (j *ExpiringDocsJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Monitor == nil {
		return errors.New("expiring docs scan: handler not configured")
	}
	var payload ExpiringDocsPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	start := time.Now()
	logger := j.logger().With(slog.Int("horizon_days", payload.HorizonDays))
	logger.Info("starting expiring documents scan")

	report, err := j.Monitor.ExpiringSoon(ctx, payload.HorizonDays)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}

	alerted := 0
	for _, doc := range report.Documents {
		fire, err := j.Alerts.ShouldAlert(ctx, "expiring_doc", doc.ID)
		if err != nil {
			logger.Warn("alert dedupe check failed", slog.Int64("document_id", doc.ID), slog.Any("error", err))
			continue
		}
		if !fire {
			continue
		}
		alerted++
		logger.Warn("invoice nearing expiry with balance outstanding",
			slog.Int64("document_id", doc.ID),
			slog.String("number", doc.Number),
			slog.String("status", string(doc.Status)),
			slog.Int64("amount_outstanding", int64(doc.AmountToPay-doc.AmountPaid)),
		)
	}

	logger.Info("completed expiring documents scan",
		slog.Int("expiring", len(report.Documents)),
		slog.Int("alerted", alerted),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *ExpiringDocsJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeExpiringDocs))
	}
	return slog.Default().With(slog.String("job", TaskTypeExpiringDocs))
}
