package dashboard

import (
	"context"

	"github.com/mkoudsi/opstower/internal/fetch"
	"github.com/mkoudsi/opstower/internal/upstream"
)

// CommandCenterPage orchestrates the network-wide overview. It takes no
// filter; both slices cover every node.
type CommandCenterPage struct {
	backend Backend

	global *fetch.Slice[upstream.GlobalKPIs]
	nodes  *fetch.Slice[[]upstream.NodeHealth]
}

// CommandCenterSnapshot is the full render state of the command center page.
type CommandCenterSnapshot struct {
	GlobalKPIs fetch.Snapshot[upstream.GlobalKPIs]   `json:"globalKpis"`
	NodeHealth fetch.Snapshot[[]upstream.NodeHealth] `json:"nodeHealth"`
}

// NewCommandCenterPage creates the page with bundled fallbacks as initial values.
func NewCommandCenterPage(backend Backend, defaults *Defaults, onChange func()) *CommandCenterPage {
	return &CommandCenterPage{
		backend: backend,
		global:  fetch.NewSlice("commandCenter.globalKpis", defaults.GlobalKPIs, onChange),
		nodes:   fetch.NewSlice("commandCenter.nodeHealth", defaults.NodeHealth, onChange),
	}
}

// Mount issues the initial fetches for both slices.
func (p *CommandCenterPage) Mount(ctx context.Context) {
	p.Refresh(ctx)
}

// Refresh re-fetches both slices.
func (p *CommandCenterPage) Refresh(ctx context.Context) {
	p.global.Trigger(ctx, func(ctx context.Context) (upstream.GlobalKPIs, error) {
		return p.backend.GlobalKPIs(ctx)
	})
	p.nodes.Trigger(ctx, func(ctx context.Context) ([]upstream.NodeHealth, error) {
		return p.backend.NodeHealth(ctx)
	})
}

// Snapshot returns the page's full render state.
func (p *CommandCenterPage) Snapshot() CommandCenterSnapshot {
	return CommandCenterSnapshot{
		GlobalKPIs: p.global.Snapshot(),
		NodeHealth: p.nodes.Snapshot(),
	}
}

// Close unmounts the page; late fetch resolutions are discarded.
func (p *CommandCenterPage) Close() {
	p.global.Close()
	p.nodes.Close()
}
