package dashboard

import (
	"context"
	"sync"

	"github.com/mkoudsi/opstower/internal/fetch"
	"github.com/mkoudsi/opstower/internal/upstream"
)

// DCPage orchestrates the distribution center view. The filter's EntityID
// selects the DC, SubEntityID optionally narrows days-of-cover to one SKU.
type DCPage struct {
	backend Backend

	mu     sync.Mutex
	filter FilterSelection

	kpis      *fetch.Slice[upstream.DCKPIs]
	daysCover *fetch.Slice[[]upstream.DaysCover]
	invAge    *fetch.Slice[[]upstream.InventoryAgeBucket]
}

// DCSnapshot is the full render state of the DC page.
type DCSnapshot struct {
	Filter       FilterSelection                               `json:"filter"`
	KPIs         fetch.Snapshot[upstream.DCKPIs]               `json:"kpis"`
	DaysCover    fetch.Snapshot[[]upstream.DaysCover]          `json:"daysCover"`
	InventoryAge fetch.Snapshot[[]upstream.InventoryAgeBucket] `json:"inventoryAge"`
}

// NewDCPage creates the page with bundled fallbacks as initial values.
func NewDCPage(backend Backend, defaults *Defaults, filter FilterSelection, onChange func()) *DCPage {
	return &DCPage{
		backend:   backend,
		filter:    filter,
		kpis:      fetch.NewSlice("dc.kpis", defaults.DCKPIs, onChange),
		daysCover: fetch.NewSlice("dc.daysCover", defaults.DaysCover, onChange),
		invAge:    fetch.NewSlice("dc.inventoryAge", defaults.InventoryAge, onChange),
	}
}

// Mount issues the initial fetches for all slices.
func (p *DCPage) Mount(ctx context.Context) {
	p.Refresh(ctx)
}

// Refresh re-fetches every slice with the current filter.
func (p *DCPage) Refresh(ctx context.Context) {
	p.mu.Lock()
	f := p.filter
	p.mu.Unlock()

	p.kpis.Trigger(ctx, func(ctx context.Context) (upstream.DCKPIs, error) {
		return p.backend.DCKPIs(ctx, f.EntityID)
	})
	p.daysCover.Trigger(ctx, func(ctx context.Context) ([]upstream.DaysCover, error) {
		return p.backend.DCDaysCover(ctx, f.EntityID, f.SubEntityID)
	})
	p.invAge.Trigger(ctx, func(ctx context.Context) ([]upstream.InventoryAgeBucket, error) {
		return p.backend.DCInventoryAge(ctx, f.EntityID)
	})
}

// SetFilter stores the new selection and re-fetches; equal selections no-op.
func (p *DCPage) SetFilter(ctx context.Context, f FilterSelection) {
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
func (p *DCPage) Filter() FilterSelection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter
}

// Snapshot returns the page's full render state.
func (p *DCPage) Snapshot() DCSnapshot {
	return DCSnapshot{
		Filter:       p.Filter(),
		KPIs:         p.kpis.Snapshot(),
		DaysCover:    p.daysCover.Snapshot(),
		InventoryAge: p.invAge.Snapshot(),
	}
}

// Close unmounts the page; late fetch resolutions are discarded.
func (p *DCPage) Close() {
	p.kpis.Close()
	p.daysCover.Close()
	p.invAge.Close()
}
