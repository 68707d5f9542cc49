// OpsTower - Supply Chain Operations Dashboard Gateway
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/mkoudsi/opstower/internal/api"
	"github.com/mkoudsi/opstower/internal/audit"
	"github.com/mkoudsi/opstower/internal/chat"
	"github.com/mkoudsi/opstower/internal/config"
	"github.com/mkoudsi/opstower/internal/dashboard"
	"github.com/mkoudsi/opstower/internal/middleware"
	"github.com/mkoudsi/opstower/internal/upstream"
	"github.com/mkoudsi/opstower/internal/ws"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting gateway", "port", cfg.Port, "upstream", cfg.Upstream.BaseURL, "dev", cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize the audit trail (optional).
	var auditStore audit.Store
	var auditLogger *audit.Logger
	if cfg.Audit.Enabled {
		store, err := audit.NewSQLite(cfg.Audit.DBPath)
		if err != nil {
			slog.Error("Failed to initialize audit database", "error", err)
			os.Exit(1)
		}
		defer func() {
			if closeErr := store.Close(); closeErr != nil {
				slog.Error("Failed to close audit database", "error", closeErr)
			}
		}()

		if err := store.Ping(context.Background()); err != nil {
			slog.Error("Audit database health check failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Audit database connected", "path", cfg.Audit.DBPath)

		auditStore = store
		auditLogger = audit.NewLogger(store, cfg.Audit.QueueSize)
		defer func() { _ = auditLogger.Close() }()

		audit.StartRetentionWorker(ctx, store, cfg.Audit.Retention)
	} else {
		slog.Info("Audit trail disabled")
	}

	// Initialize the upstream client and shared state.
	client := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, cfg.Upstream.QueryTimeout)

	defaults, err := dashboard.LoadDefaults()
	if err != nil {
		slog.Error("Failed to load bundled defaults", "error", err)
		os.Exit(1)
	}

	views := ws.NewViewManager()

	// Pages and the chat session notify through this closure; the state
	// provider is assigned below, before any fetch is triggered.
	var state *api.StateProvider
	onChange := func() {
		if state != nil {
			views.BroadcastJSON(state.Snapshot())
		}
	}

	var auditor chat.Auditor
	if auditLogger != nil {
		auditor = exchangeAuditor{logger: auditLogger}
	}

	session := chat.NewSession(client, auditor)
	session.SetOnChange(onChange)

	state = &api.StateProvider{
		Factory: dashboard.NewFactoryPage(client, defaults, dashboard.FilterSelection{
			EntityID:    cfg.Filters.FactoryID,
			SubEntityID: cfg.Filters.LineID,
		}, onChange),
		DC: dashboard.NewDCPage(client, defaults, dashboard.FilterSelection{
			EntityID: cfg.Filters.DCID,
		}, onChange),
		Store: dashboard.NewStorePage(client, defaults, dashboard.FilterSelection{
			EntityID: cfg.Filters.StoreID,
		}, onChange),
		CommandCenter: dashboard.NewCommandCenterPage(client, defaults, onChange),
		Session:       session,
	}

	state.Factory.Mount(ctx)
	state.DC.Mount(ctx)
	state.Store.Mount(ctx)
	state.CommandCenter.Mount(ctx)

	// Initialize handlers.
	dashboardHandler := api.NewDashboardHandler(state)
	chatHandler := api.NewChatHandler(state)
	healthHandler := api.NewHealthHandler(client, auditPinger(auditStore))
	wsHandler := ws.NewHandler(views, session, func() any { return state.Snapshot() }, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS([]string{"*"}))

	r.Get("/api/health", healthHandler.GetHealth)
	r.Mount("/api/dashboard", dashboardHandler.Routes())
	r.Mount("/api/chat", chatHandler.Routes())
	if auditStore != nil {
		auditHandler := api.NewAuditHandler(auditStore)
		r.Get("/api/audit/exchanges", auditHandler.GetExchanges)
	}

	// WebSocket endpoint.
	r.Get("/ws/dashboard", wsHandler.ServeHTTP)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // WebSocket connections stay open indefinitely
		IdleTimeout:  120 * time.Second,
	}

	// Start server.
	go func() {
		slog.Info("Gateway listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	views.CloseAll()
	state.Factory.Close()
	state.DC.Close()
	state.Store.Close()
	state.CommandCenter.Close()

	slog.Info("Gateway stopped successfully")
}

// exchangeAuditor adapts the audit logger to the chat session's interface.
type exchangeAuditor struct {
	logger *audit.Logger
}

func (a exchangeAuditor) Record(rec chat.ExchangeRecord) {
	a.logger.Record(audit.Exchange{
		Question:     rec.Question,
		SQL:          rec.SQL,
		Outcome:      rec.Outcome,
		RowsReturned: rec.RowsReturned,
		RowsAffected: rec.RowsAffected,
		DurationMs:   rec.Duration.Milliseconds(),
	})
}

// auditPinger narrows the audit store for the health handler; a nil store
// yields a nil Pinger.
func auditPinger(store audit.Store) api.Pinger {
	if store == nil {
		return nil
	}
	return store
}
