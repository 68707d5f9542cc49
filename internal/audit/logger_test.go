package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeStore records exchanges in memory, optionally blocking each write.
type fakeStore struct {
	mu      sync.Mutex
	recs    []Exchange
	cutoffs []time.Time
	release chan struct{} // if non-nil, writes block until closed
}

func (f *fakeStore) RecordExchange(ctx context.Context, ex *Exchange) error {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	f.recs = append(f.recs, *ex)
	f.mu.Unlock()
	return nil
}

func (f *fakeStore) RecentExchanges(ctx context.Context, limit int) ([]Exchange, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) CleanupBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	f.cutoffs = append(f.cutoffs, cutoff)
	f.mu.Unlock()
	return 0, nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                   { return nil }

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.recs)
}

func TestLoggerPersistsRecords(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	logger := NewLogger(store, 16)

	logger.Record(Exchange{Question: "q1", Outcome: "ok"})
	logger.Record(Exchange{Question: "q2", Outcome: "error"})

	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if got := store.count(); got != 2 {
		t.Fatalf("expected 2 persisted records, got %d", got)
	}
}

func TestLoggerDropsWhenQueueFull(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	store := &fakeStore{release: release}
	logger := NewLogger(store, 1)

	// First record occupies the worker, second fills the queue, third drops.
	logger.Record(Exchange{Question: "q1"})
	logger.Record(Exchange{Question: "q2"})

	deadline := time.Now().Add(time.Second)
	for logger.Dropped() == 0 && time.Now().Before(deadline) {
		logger.Record(Exchange{Question: "overflow"})
		time.Sleep(time.Millisecond)
	}
	if logger.Dropped() == 0 {
		t.Fatal("expected at least one dropped record with a full queue")
	}

	close(release)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestLoggerRecordAfterCloseIsSilentDrop(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	logger := NewLogger(store, 16)
	logger.Record(Exchange{Question: "before close", Outcome: "ok"})
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// A chat reply resolving during shutdown records after Close; that
	// must drop quietly, never crash.
	logger.Record(Exchange{Question: "after close", Outcome: "ok"})
	logger.Record(Exchange{Question: "after close again", Outcome: "error"})

	if got := store.count(); got != 1 {
		t.Fatalf("expected only the pre-close record persisted, got %d", got)
	}
	if got := logger.Dropped(); got != 2 {
		t.Fatalf("expected 2 dropped records, got %d", got)
	}
}

func TestLoggerCloseDrainsQueue(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	logger := NewLogger(store, 64)
	for i := 0; i < 20; i++ {
		logger.Record(Exchange{Question: "q", Outcome: "ok"})
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if got := store.count(); got != 20 {
		t.Fatalf("Close must drain the queue: got %d of 20", got)
	}
}
