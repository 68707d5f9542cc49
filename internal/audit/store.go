// Package audit persists the chat exchange trail: every question asked
// through the assistant, the SQL it produced and how it resolved.
package audit

import (
	"context"
	"time"
)

// Exchange is one persisted question/reply record.
type Exchange struct {
	ID           string    `json:"id"`
	Question     string    `json:"question"`
	SQL          string    `json:"sql,omitempty"`
	Outcome      string    `json:"outcome"` // "ok" or "error"
	RowsReturned int       `json:"rowsReturned"`
	RowsAffected int64     `json:"rowsAffected"`
	DurationMs   int64     `json:"durationMs"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Store is the persistence interface for the exchange trail.
type Store interface {
	// RecordExchange inserts one exchange. An empty ID is assigned.
	RecordExchange(ctx context.Context, ex *Exchange) error
	// RecentExchanges returns up to limit exchanges, newest first.
	RecentExchanges(ctx context.Context, limit int) ([]Exchange, error)
	// CleanupBefore deletes exchanges older than cutoff, returning the count.
	CleanupBefore(ctx context.Context, cutoff time.Time) (int64, error)
	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
	Close() error
}
