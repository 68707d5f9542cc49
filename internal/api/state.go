package api

import (
	"github.com/mkoudsi/opstower/internal/chat"
	"github.com/mkoudsi/opstower/internal/dashboard"
	"github.com/mkoudsi/opstower/internal/render"
)

// StateProvider aggregates the render state of every page plus the shared
// conversation into one payload. The same payload serves GET requests and
// WebSocket pushes, so all surfaces observe identical state.
type StateProvider struct {
	Factory       *dashboard.FactoryPage
	DC            *dashboard.DCPage
	Store         *dashboard.StorePage
	CommandCenter *dashboard.CommandCenterPage
	Session       *chat.Session
}

// ChatState is the conversation rendered for display.
type ChatState struct {
	Messages []render.View `json:"messages"`
	Draft    string        `json:"draft"`
	Pending  bool          `json:"pending"`
}

// State is the full dashboard state.
type State struct {
	Factory       dashboard.FactorySnapshot       `json:"factory"`
	DC            dashboard.DCSnapshot            `json:"dc"`
	Store         dashboard.StoreSnapshot         `json:"store"`
	CommandCenter dashboard.CommandCenterSnapshot `json:"commandCenter"`
	Chat          ChatState                       `json:"chat"`
}

// Snapshot assembles the current full state.
func (p *StateProvider) Snapshot() State {
	return State{
		Factory:       p.Factory.Snapshot(),
		DC:            p.DC.Snapshot(),
		Store:         p.Store.Snapshot(),
		CommandCenter: p.CommandCenter.Snapshot(),
		Chat:          p.ChatState(),
	}
}

// ChatState renders the shared conversation.
func (p *StateProvider) ChatState() ChatState {
	snap := p.Session.Snapshot()
	return ChatState{
		Messages: render.BuildAll(snap.Messages),
		Draft:    snap.Draft,
		Pending:  snap.Pending,
	}
}
