package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mkoudsi/opstower/internal/dashboard"
)

// DashboardHandler serves page state, filter changes and manual refresh.
type DashboardHandler struct {
	state *StateProvider
}

// NewDashboardHandler creates a dashboard handler.
func NewDashboardHandler(state *StateProvider) *DashboardHandler {
	return &DashboardHandler{state: state}
}

// Routes returns the dashboard route tree.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/state", h.GetState)

	r.Route("/factory", func(r chi.Router) {
		r.Get("/", h.GetFactory)
		r.Post("/filter", h.SetFactoryFilter)
		r.Post("/refresh", h.RefreshFactory)
	})
	r.Route("/dc", func(r chi.Router) {
		r.Get("/", h.GetDC)
		r.Post("/filter", h.SetDCFilter)
		r.Post("/refresh", h.RefreshDC)
	})
	r.Route("/store", func(r chi.Router) {
		r.Get("/", h.GetStore)
		r.Post("/filter", h.SetStoreFilter)
		r.Post("/refresh", h.RefreshStore)
	})
	r.Route("/command-center", func(r chi.Router) {
		r.Get("/", h.GetCommandCenter)
		r.Post("/refresh", h.RefreshCommandCenter)
	})
	return r
}

// GetState returns the full dashboard state.
func (h *DashboardHandler) GetState(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.state.Snapshot())
}

// GetFactory returns the factory page state.
func (h *DashboardHandler) GetFactory(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.state.Factory.Snapshot())
}

// SetFactoryFilter applies a new factory selection and re-fetches.
func (h *DashboardHandler) SetFactoryFilter(w http.ResponseWriter, r *http.Request) {
	f, err := decodeFilter(w, r)
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	h.state.Factory.SetFilter(r.Context(), f)
	JSON(w, http.StatusAccepted, h.state.Factory.Snapshot())
}

// RefreshFactory re-fetches the factory page with its current filter.
func (h *DashboardHandler) RefreshFactory(w http.ResponseWriter, r *http.Request) {
	h.state.Factory.Refresh(r.Context())
	JSON(w, http.StatusAccepted, h.state.Factory.Snapshot())
}

// GetDC returns the DC page state.
func (h *DashboardHandler) GetDC(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.state.DC.Snapshot())
}

// SetDCFilter applies a new DC selection and re-fetches.
func (h *DashboardHandler) SetDCFilter(w http.ResponseWriter, r *http.Request) {
	f, err := decodeFilter(w, r)
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	h.state.DC.SetFilter(r.Context(), f)
	JSON(w, http.StatusAccepted, h.state.DC.Snapshot())
}

// RefreshDC re-fetches the DC page with its current filter.
func (h *DashboardHandler) RefreshDC(w http.ResponseWriter, r *http.Request) {
	h.state.DC.Refresh(r.Context())
	JSON(w, http.StatusAccepted, h.state.DC.Snapshot())
}

// GetStore returns the store page state.
func (h *DashboardHandler) GetStore(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.state.Store.Snapshot())
}

// SetStoreFilter applies a new store selection and re-fetches.
func (h *DashboardHandler) SetStoreFilter(w http.ResponseWriter, r *http.Request) {
	f, err := decodeFilter(w, r)
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	h.state.Store.SetFilter(r.Context(), f)
	JSON(w, http.StatusAccepted, h.state.Store.Snapshot())
}

// RefreshStore re-fetches the store page with its current filter.
func (h *DashboardHandler) RefreshStore(w http.ResponseWriter, r *http.Request) {
	h.state.Store.Refresh(r.Context())
	JSON(w, http.StatusAccepted, h.state.Store.Snapshot())
}

// GetCommandCenter returns the command center page state.
func (h *DashboardHandler) GetCommandCenter(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.state.CommandCenter.Snapshot())
}

// RefreshCommandCenter re-fetches the command center page.
func (h *DashboardHandler) RefreshCommandCenter(w http.ResponseWriter, r *http.Request) {
	h.state.CommandCenter.Refresh(r.Context())
	JSON(w, http.StatusAccepted, h.state.CommandCenter.Snapshot())
}

// filterRequest is the wire form of a selection change. Times are RFC3339
// and optional.
type filterRequest struct {
	EntityID    string `json:"entityId"`
	SubEntityID string `json:"subEntityId"`
	From        string `json:"from"`
	To          string `json:"to"`
}

func decodeFilter(w http.ResponseWriter, r *http.Request) (dashboard.FilterSelection, error) {
	var req filterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return dashboard.FilterSelection{}, fmt.Errorf("invalid request body: %w", err)
	}

	f := dashboard.FilterSelection{
		EntityID:    req.EntityID,
		SubEntityID: req.SubEntityID,
	}
	if req.From != "" {
		from, err := time.Parse(time.RFC3339, req.From)
		if err != nil {
			return dashboard.FilterSelection{}, fmt.Errorf("invalid from timestamp: %w", err)
		}
		f.From = from
	}
	if req.To != "" {
		to, err := time.Parse(time.RFC3339, req.To)
		if err != nil {
			return dashboard.FilterSelection{}, fmt.Errorf("invalid to timestamp: %w", err)
		}
		f.To = to
	}
	return f, nil
}
