// Package dashboard composes per-page data orchestrators over the
// analytics service, with bundled fallbacks so every page renders fully
// even when the upstream is unreachable.
package dashboard

import "time"

// FilterSelection identifies which upstream queries a page issues.
// It is treated as an immutable value; pages re-fetch only when the
// selection actually changes.
type FilterSelection struct {
	EntityID    string    `json:"entityId"`
	SubEntityID string    `json:"subEntityId,omitempty"`
	From        time.Time `json:"from,omitzero"`
	To          time.Time `json:"to,omitzero"`
}

// Equal reports whether two selections would issue identical queries.
func (f FilterSelection) Equal(other FilterSelection) bool {
	return f.EntityID == other.EntityID &&
		f.SubEntityID == other.SubEntityID &&
		f.From.Equal(other.From) &&
		f.To.Equal(other.To)
}
