package dashboard

import (
	"context"
	"sync"

	"github.com/mkoudsi/opstower/internal/fetch"
	"github.com/mkoudsi/opstower/internal/upstream"
)

// StorePage orchestrates the store operations view. The filter's EntityID
// selects the store.
type StorePage struct {
	backend Backend

	mu     sync.Mutex
	filter FilterSelection

	kpis   *fetch.Slice[upstream.StoreKPIs]
	shelf  *fetch.Slice[[]upstream.ShelfPerformance]
	hourly *fetch.Slice[[]upstream.HourlySales]
}

// StoreSnapshot is the full render state of the store page.
type StoreSnapshot struct {
	Filter FilterSelection                             `json:"filter"`
	KPIs   fetch.Snapshot[upstream.StoreKPIs]          `json:"kpis"`
	Shelf  fetch.Snapshot[[]upstream.ShelfPerformance] `json:"shelfPerformance"`
	Hourly fetch.Snapshot[[]upstream.HourlySales]      `json:"hourlySales"`
}

// NewStorePage creates the page with bundled fallbacks as initial values.
func NewStorePage(backend Backend, defaults *Defaults, filter FilterSelection, onChange func()) *StorePage {
	return &StorePage{
		backend: backend,
		filter:  filter,
		kpis:    fetch.NewSlice("store.kpis", defaults.StoreKPIs, onChange),
		shelf:   fetch.NewSlice("store.shelfPerformance", defaults.ShelfPerformance, onChange),
		hourly:  fetch.NewSlice("store.hourlySales", defaults.HourlySales, onChange),
	}
}

// Mount issues the initial fetches for all slices.
func (p *StorePage) Mount(ctx context.Context) {
	p.Refresh(ctx)
}

// Refresh re-fetches every slice with the current filter.
func (p *StorePage) Refresh(ctx context.Context) {
	p.mu.Lock()
	f := p.filter
	p.mu.Unlock()

	p.kpis.Trigger(ctx, func(ctx context.Context) (upstream.StoreKPIs, error) {
		return p.backend.StoreKPIs(ctx, f.EntityID)
	})
	p.shelf.Trigger(ctx, func(ctx context.Context) ([]upstream.ShelfPerformance, error) {
		return p.backend.StoreShelfPerformance(ctx, f.EntityID)
	})
	p.hourly.Trigger(ctx, func(ctx context.Context) ([]upstream.HourlySales, error) {
		return p.backend.StoreHourlySales(ctx, f.EntityID)
	})
}

// SetFilter stores the new selection and re-fetches; equal selections no-op.
func (p *StorePage) SetFilter(ctx context.Context, f FilterSelection) {
	p.mu.Lock()
	if p.filter.Equal(f) {
		p.mu.Unlock()
		return
	}
	p.filter = f
	p.mu.Unlock()
	p.Refresh(ctx)
}

// Filter returns the current selection.
func (p *StorePage) Filter() FilterSelection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter
}

// Snapshot returns the page's full render state.
func (p *StorePage) Snapshot() StoreSnapshot {
	return StoreSnapshot{
		Filter: p.Filter(),
		KPIs:   p.kpis.Snapshot(),
		Shelf:  p.shelf.Snapshot(),
		Hourly: p.hourly.Snapshot(),
	}
}

// Close unmounts the page; late fetch resolutions are discarded.
func (p *StorePage) Close() {
	p.kpis.Close()
	p.shelf.Close()
	p.hourly.Close()
}
