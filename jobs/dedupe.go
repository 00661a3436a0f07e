package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AlertDeduper suppresses repeat alerts for the same subject within a
// window. The first caller for a key wins; later calls within the window
// are told not to alert again.
type AlertDeduper struct {
	rdb    *redis.Client
	window time.Duration
}

// NewAlertDeduper constructs the deduper.
func NewAlertDeduper(rdb *redis.Client, window time.Duration) *AlertDeduper {
	if window <= 0 {
		window = 6 * time.Hour
	}
	return &AlertDeduper{rdb: rdb, window: window}
}

// ShouldAlert reports whether an alert for the subject should fire now.
// Without a Redis client every alert fires.
func (d *AlertDeduper) ShouldAlert(ctx context.Context, kind string, subjectID int64) (bool, error) {
	if d == nil || d.rdb == nil {
		return true, nil
	}
	key := fmt.Sprintf("alerts:%s:%d", kind, subjectID)
	return d.rdb.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), d.window).Result()
}
