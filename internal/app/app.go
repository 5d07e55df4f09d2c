package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/daybook/internal/config"
	"github.com/klokku/daybook/internal/rest"
	"github.com/klokku/daybook/internal/utils"
	"github.com/klokku/daybook/pkg/dashboard"
	log "github.com/sirupsen/logrus"
)

// Application wires configuration, dependencies, router, and server lifecycle.
type Application struct {
	cfg    config.Application
	deps   *Dependencies
	router *mux.Router
	srv    *http.Server
}

// NewApplication constructs the full HTTP application, ready to Run().
func NewApplication(cfg config.Application, clock utils.Clock) (*Application, error) {
	deps, err := BuildDependencies(cfg, clock)
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()
	SetupMiddleware(r)
	RegisterRoutes(r, deps)

	if cfg.Frontend.Enabled {
		frontend := rest.NewFrontendHandler(cfg.Frontend.Dir, "index.html")
		r.PathPrefix("/").Handler(frontend)
	}

	srv := &http.Server{
		Handler:      r,
		Addr:         cfg.Server.Addr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{cfg: cfg, deps: deps, router: r, srv: srv}, nil
}

func (a *Application) Router() http.Handler {
	return a.router
}

func (a *Application) Dashboard() dashboard.Service {
	return a.deps.DashboardService
}

// Bootstrap loads the bucket list and the start month. A critical bootstrap
// failure is reported but the server still starts, so /api/status can explain it.
func (a *Application) Bootstrap(ctx context.Context) error {
	err := a.deps.DashboardService.Bootstrap(ctx)
	if errors.Is(err, dashboard.ErrCriticalBootstrap) {
		log.Errorf("Starting without data: %v", err)
		return nil
	}
	return err
}

// Run bootstraps the dashboard, starts the HTTP server and blocks until ctx
// is done.
func (a *Application) Run(ctx context.Context) error {
	if err := a.Bootstrap(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", a.srv.Addr)
		errCh <- a.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		return a.srv.Shutdown(shutdownCtx)
	}
}
