package ui

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aigate/app"
)

// App represents the HTTP API over the gatekeeper pipeline
type App struct {
	router     *chi.Mux
	gatekeeper *app.GatekeeperService
	gatherer   prometheus.Gatherer
	config     Config
}

// Config holds HTTP server configuration
type Config struct {
	Port string
	// RequestTimeout bounds each API request; zero disables it
	RequestTimeout time.Duration
}

// NewApp creates the API. gatherer backs /metrics and may be nil to use the default registry.
func NewApp(config Config, gatekeeper *app.GatekeeperService, gatherer prometheus.Gatherer) *App {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if config.Port == "" {
		config.Port = "8080"
	}

	a := &App{
		router:     chi.NewRouter(),
		gatekeeper: gatekeeper,
		gatherer:   gatherer,
		config:     config,
	}

	a.setupMiddleware()
	a.setupRoutes()

	return a
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/healthz", a.handleHealth)
	a.router.Handle("/metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))

	a.router.Route("/api", func(r chi.Router) {
		// Gate endpoints
		r.Post("/gate/validate", a.handleValidate)
		r.Post("/gate/batch", a.handleBatch)
		r.Post("/gate/confirm", a.handleConfirm)

		// Trend endpoints
		r.Post("/trend/analyze", a.handleAnalyze)
		r.Post("/trend/report", a.handleReport)

		// Monitor endpoints
		r.Get("/monitor/status", a.handleMonitorStatus)
		r.Get("/monitor/logs", a.handleMonitorLogs)
		r.Post("/monitor/override", a.handleSetOverride)
		r.Delete("/monitor/override", a.handleClearOverride)
	})
}

// Handler exposes the router, for tests and custom servers
func (a *App) Handler() http.Handler {
	return a.router
}

// Start serves until ctx is cancelled, then drains in-flight requests
func (a *App) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.config.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[App] Starting gatekeeper API on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Printf("[App] Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "ok",
		"killSwitchActive": a.gatekeeper.Monitor().IsActive(),
	})
}
