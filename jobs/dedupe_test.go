package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestAlertDeduper(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	deduper := NewAlertDeduper(rdb, time.Hour)
	ctx := context.Background()

	fire, err := deduper.ShouldAlert(ctx, "low_stock", 7)
	require.NoError(t, err)
	require.True(t, fire)

	fire, err = deduper.ShouldAlert(ctx, "low_stock", 7)
	require.NoError(t, err)
	require.False(t, fire)

	// Different subject, independent window.
	fire, err = deduper.ShouldAlert(ctx, "low_stock", 8)
	require.NoError(t, err)
	require.True(t, fire)

	// Different kind, independent window.
	fire, err = deduper.ShouldAlert(ctx, "expiring_doc", 7)
	require.NoError(t, err)
	require.True(t, fire)

	// Window elapses, alert fires again.
	mr.FastForward(2 * time.Hour)
	fire, err = deduper.ShouldAlert(ctx, "low_stock", 7)
	require.NoError(t, err)
	require.True(t, fire)
}

func TestAlertDeduperWithoutRedis(t *testing.T) {
	deduper := NewAlertDeduper(nil, time.Hour)
	fire, err := deduper.ShouldAlert(context.Background(), "low_stock", 1)
	require.NoError(t, err)
	require.True(t, fire)
}
