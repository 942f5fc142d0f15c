package tracker

import (
	"context"
	"time"
)

// StartPolling launches the periodic refresh: one cycle immediately, then
// one per interval. The returned stop function cancels the ticker and is
// safe to call more than once. In-flight fetches are not aborted; a late
// result lands wholesale on the current state.
func (t *Tracker) StartPolling(ctx context.Context, interval time.Duration) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		_ = t.RefreshNow(context.Background())
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = t.RefreshNow(context.Background())
			}
		}
	}()

	return cancel
}
