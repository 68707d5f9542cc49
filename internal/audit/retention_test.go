package audit

import (
	"context"
	"testing"
	"time"
)

func TestSweepUsesRetentionWindowAsCutoff(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	retention := 72 * time.Hour

	before := time.Now().Add(-retention)
	sweepExpiredExchanges(context.Background(), store, retention)
	after := time.Now().Add(-retention)

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.cutoffs) != 1 {
		t.Fatalf("expected one cleanup call, got %d", len(store.cutoffs))
	}
	cutoff := store.cutoffs[0]
	if cutoff.Before(before) || cutoff.After(after) {
		t.Fatalf("cutoff %v outside expected window [%v, %v]", cutoff, before, after)
	}
}
