package dashboard

import (
	"context"
	"sync"

	"github.com/mkoudsi/opstower/internal/fetch"
	"github.com/mkoudsi/opstower/internal/upstream"
)

// FactoryPage orchestrates the three data slices of the factory control
// tower view. Each slice loads and fails independently.
type FactoryPage struct {
	backend Backend

	mu     sync.Mutex
	filter FilterSelection

	kpis     *fetch.Slice[upstream.FactoryKPIs]
	hourly   *fetch.Slice[[]upstream.HourlyProduction]
	dispatch *fetch.Slice[[]upstream.DispatchPlan]
}

// FactorySnapshot is the full render state of the factory page.
type FactorySnapshot struct {
	Filter   FilterSelection                             `json:"filter"`
	KPIs     fetch.Snapshot[upstream.FactoryKPIs]        `json:"kpis"`
	Hourly   fetch.Snapshot[[]upstream.HourlyProduction] `json:"hourlyProduction"`
	Dispatch fetch.Snapshot[[]upstream.DispatchPlan]     `json:"dispatchPlanning"`
}

// NewFactoryPage creates the page with bundled fallbacks as initial values.
// No fetch is issued until Mount.
func NewFactoryPage(backend Backend, defaults *Defaults, filter FilterSelection, onChange func()) *FactoryPage {
	return &FactoryPage{
		backend:  backend,
		filter:   filter,
		kpis:     fetch.NewSlice("factory.kpis", defaults.FactoryKPIs, onChange),
		hourly:   fetch.NewSlice("factory.hourlyProduction", defaults.HourlyProduction, onChange),
		dispatch: fetch.NewSlice("factory.dispatchPlanning", defaults.DispatchPlanning, onChange),
	}
}

// Mount issues the initial fetches for all slices.
func (p *FactoryPage) Mount(ctx context.Context) {
	p.Refresh(ctx)
}

// Refresh re-fetches every slice with the current filter.
func (p *FactoryPage) Refresh(ctx context.Context) {
	p.mu.Lock()
	f := p.filter
	p.mu.Unlock()

	p.kpis.Trigger(ctx, func(ctx context.Context) (upstream.FactoryKPIs, error) {
		return p.backend.FactoryKPIs(ctx, f.EntityID, f.SubEntityID)
	})
	p.hourly.Trigger(ctx, func(ctx context.Context) ([]upstream.HourlyProduction, error) {
		return p.backend.FactoryHourlyProduction(ctx, f.EntityID, f.SubEntityID)
	})
	p.dispatch.Trigger(ctx, func(ctx context.Context) ([]upstream.DispatchPlan, error) {
		return p.backend.FactoryDispatchPlanning(ctx, f.EntityID, f.SubEntityID)
	})
}

// SetFilter stores the new selection and re-fetches. Setting a selection
// equal to the current one is a no-op.
func (p *FactoryPage) SetFilter(ctx context.Context, f FilterSelection) {
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
func (p *FactoryPage) Filter() FilterSelection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter
}

// Snapshot returns the page's full render state.
func (p *FactoryPage) Snapshot() FactorySnapshot {
	return FactorySnapshot{
		Filter:   p.Filter(),
		KPIs:     p.kpis.Snapshot(),
		Hourly:   p.hourly.Snapshot(),
		Dispatch: p.dispatch.Snapshot(),
	}
}

// Close unmounts the page; late fetch resolutions are discarded.
func (p *FactoryPage) Close() {
	p.kpis.Close()
	p.hourly.Close()
	p.dispatch.Close()
}
