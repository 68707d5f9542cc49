package api

import (
	"context"
	"net/http"
	"time"

	"github.com/mkoudsi/opstower/internal/upstream"
)

// healthCheckTimeout bounds the upstream and database probes.
const healthCheckTimeout = 3 * time.Second

// Pinger verifies a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker reports the upstream analytics service health.
type HealthChecker interface {
	Health(ctx context.Context) (upstream.Health, error)
}

// HealthHandler reports gateway health plus dependency reachability.
type HealthHandler struct {
	upstream HealthChecker
	auditDB  Pinger // nil when auditing is disabled
}

// NewHealthHandler creates a health handler. auditDB may be nil.
func NewHealthHandler(up HealthChecker, auditDB Pinger) *HealthHandler {
	return &HealthHandler{upstream: up, auditDB: auditDB}
}

type healthReport struct {
	Status   string         `json:"status"`
	Service  string         `json:"service"`
	Upstream upstreamReport `json:"upstream"`
	AuditDB  string         `json:"auditDb"`
}

type upstreamReport struct {
	Reachable bool             `json:"reachable"`
	Detail    *upstream.Health `json:"detail,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// GetHealth reports the gateway's own status and its dependencies. The
// gateway stays "ok" even when the upstream is down; pages serve bundled
// fallbacks in that state.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	report := healthReport{Status: "ok", Service: "opstower-gateway"}

	if detail, err := h.upstream.Health(ctx); err != nil {
		report.Upstream = upstreamReport{Reachable: false, Error: err.Error()}
	} else {
		report.Upstream = upstreamReport{Reachable: true, Detail: &detail}
	}

	switch {
	case h.auditDB == nil:
		report.AuditDB = "disabled"
	default:
		if err := h.auditDB.Ping(ctx); err != nil {
			report.AuditDB = "unreachable"
			report.Status = "degraded"
		} else {
			report.AuditDB = "ok"
		}
	}

	JSON(w, http.StatusOK, report)
}
