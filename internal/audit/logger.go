package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// writeTimeout bounds each store write issued by the worker.
const writeTimeout = 5 * time.Second

// Logger records exchanges asynchronously through a bounded queue so the
// chat path never blocks on the audit database. When the queue is full,
// or the logger has been closed, the record is dropped and counted;
// auditing is best effort.
type Logger struct {
	store Store
	queue chan Exchange

	closeOnce sync.Once
	done      chan struct{}

	mu      sync.Mutex
	closed  bool
	dropped int64
}

// NewLogger starts the write worker. queueSize bounds how many records may
// be waiting; beyond that, Record drops.
func NewLogger(store Store, queueSize int) *Logger {
	if queueSize <= 0 {
		queueSize = 256
	}
	l := &Logger{
		store: store,
		queue: make(chan Exchange, queueSize),
		done:  make(chan struct{}),
	}
	go l.run()
	return l
}

// Record enqueues one exchange without blocking. Records arriving after
// Close, such as a chat reply resolving during shutdown, are dropped.
func (l *Logger) Record(ex Exchange) {
	l.mu.Lock()
	if l.closed {
		l.dropped++
		dropped := l.dropped
		l.mu.Unlock()
		slog.Debug("Audit logger closed, dropping exchange record", "dropped_total", dropped)
		return
	}
	select {
	case l.queue <- ex:
		l.mu.Unlock()
	default:
		l.dropped++
		dropped := l.dropped
		l.mu.Unlock()
		slog.Warn("Audit queue full, dropping exchange record", "dropped_total", dropped)
	}
}

// Dropped returns how many records have been discarded.
func (l *Logger) Dropped() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// Close stops accepting records, drains the queue and waits for the
// worker to finish.
func (l *Logger) Close() error {
	l.closeOnce.Do(func() {
		// The closed flag is set under the same mutex Record holds
		// while sending, so no send can race the channel close.
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()
		close(l.queue)
		<-l.done
	})
	return nil
}

func (l *Logger) run() {
	defer close(l.done)
	for ex := range l.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := l.store.RecordExchange(ctx, &ex); err != nil {
			slog.Error("Failed to persist exchange record", "error", err)
		}
		cancel()
	}
}
