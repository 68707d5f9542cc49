package audit

import (
	"context"
	"log/slog"
	"time"
)

const retentionSweepInterval = 1 * time.Hour

// StartRetentionWorker runs a background goroutine that periodically
// deletes exchanges older than the retention window.
func StartRetentionWorker(ctx context.Context, store Store, retention time.Duration) {
	ticker := time.NewTicker(retentionSweepInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("Audit retention worker started", "interval", retentionSweepInterval, "retention", retention)

		for {
			select {
			case <-ticker.C:
				sweepExpiredExchanges(ctx, store, retention)
			case <-ctx.Done():
				slog.Info("Audit retention worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweepExpiredExchanges(ctx context.Context, store Store, retention time.Duration) {
	cutoff := time.Now().Add(-retention)
	deleted, err := store.CleanupBefore(ctx, cutoff)
	if err != nil {
		slog.Error("Audit retention sweep failed", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("Audit retention sweep removed old exchanges", "count", deleted, "cutoff", cutoff)
	}
}
