package api

import (
	"net/http"
	"strconv"

	"github.com/mkoudsi/opstower/internal/audit"
)

const (
	defaultExchangeLimit = 50
	maxExchangeLimit     = 500
)

// AuditHandler exposes the recorded chat exchange trail.
type AuditHandler struct {
	store audit.Store
}

// NewAuditHandler creates an audit handler.
func NewAuditHandler(store audit.Store) *AuditHandler {
	return &AuditHandler{store: store}
}

// GetExchanges returns recent exchanges, newest first. The limit query
// parameter is clamped to a sane range.
func (h *AuditHandler) GetExchanges(w http.ResponseWriter, r *http.Request) {
	limit := defaultExchangeLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxExchangeLimit {
		limit = maxExchangeLimit
	}

	exchanges, err := h.store.RecentExchanges(r.Context(), limit)
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to load exchanges")
		return
	}
	if exchanges == nil {
		exchanges = []audit.Exchange{}
	}
	JSON(w, http.StatusOK, map[string]any{"exchanges": exchanges})
}
