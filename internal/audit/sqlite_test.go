package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndListExchanges(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	first := &Exchange{
		Question:     "Show me all stores",
		SQL:          "SELECT * FROM stores",
		Outcome:      "ok",
		RowsReturned: 12,
		DurationMs:   340,
		CreatedAt:    time.Now().Add(-time.Minute),
	}
	if err := store.RecordExchange(ctx, first); err != nil {
		t.Fatalf("RecordExchange failed: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected an ID to be assigned")
	}

	second := &Exchange{Question: "Delete old rows", Outcome: "error", CreatedAt: time.Now()}
	if err := store.RecordExchange(ctx, second); err != nil {
		t.Fatalf("RecordExchange failed: %v", err)
	}

	got, err := store.RecentExchanges(ctx, 10)
	if err != nil {
		t.Fatalf("RecentExchanges failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 exchanges, got %d", len(got))
	}
	// Newest first.
	if got[0].Question != "Delete old rows" || got[1].Question != "Show me all stores" {
		t.Fatalf("unexpected order: %q then %q", got[0].Question, got[1].Question)
	}
	if got[1].RowsReturned != 12 || got[1].SQL != "SELECT * FROM stores" {
		t.Fatalf("round trip lost fields: %+v", got[1])
	}
}

func TestRecentExchangesHonorsLimit(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ex := &Exchange{Question: "q", Outcome: "ok", CreatedAt: time.Now().Add(time.Duration(i) * time.Second)}
		if err := store.RecordExchange(ctx, ex); err != nil {
			t.Fatalf("RecordExchange failed: %v", err)
		}
	}

	got, err := store.RecentExchanges(ctx, 3)
	if err != nil {
		t.Fatalf("RecentExchanges failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 exchanges, got %d", len(got))
	}
}

func TestCleanupBeforeDeletesOnlyOldRows(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	old := &Exchange{Question: "old", Outcome: "ok", CreatedAt: time.Now().Add(-48 * time.Hour)}
	recent := &Exchange{Question: "recent", Outcome: "ok", CreatedAt: time.Now()}
	for _, ex := range []*Exchange{old, recent} {
		if err := store.RecordExchange(ctx, ex); err != nil {
			t.Fatalf("RecordExchange failed: %v", err)
		}
	}

	deleted, err := store.CleanupBefore(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("CleanupBefore failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted row, got %d", deleted)
	}

	got, err := store.RecentExchanges(ctx, 10)
	if err != nil {
		t.Fatalf("RecentExchanges failed: %v", err)
	}
	if len(got) != 1 || got[0].Question != "recent" {
		t.Fatalf("unexpected survivors: %+v", got)
	}
}
