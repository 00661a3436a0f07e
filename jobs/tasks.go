package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeLowStockScan is the task type for the low-stock monitor sweep.
	TaskTypeLowStockScan = "monitor:low_stock"
	// TaskTypeExpiringDocs is the task type for the near-expiry invoice sweep.
	TaskTypeExpiringDocs = "monitor:expiring_docs"
)

// LowStockScanPayload configures a low-stock sweep.
type LowStockScanPayload struct {
	// Empty for now; the sweep always runs against current state.
}

// ExpiringDocsPayload configures a near-expiry sweep.
type ExpiringDocsPayload struct {
	HorizonDays int `json:"horizon_days"`
}

// NewLowStockScanTask constructs an Asynq task.
func NewLowStockScanTask() (*asynq.Task, error) {
	data, err := json.Marshal(LowStockScanPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeLowStockScan, data), nil
}

// NewExpiringDocsTask constructs an Asynq task.
func NewExpiringDocsTask(payload ExpiringDocsPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeExpiringDocs, data), nil
}
