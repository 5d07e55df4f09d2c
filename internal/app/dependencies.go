package app

import (
	"fmt"

	"github.com/klokku/daybook/internal/config"
	"github.com/klokku/daybook/internal/event_bus"
	"github.com/klokku/daybook/internal/utils"
	"github.com/klokku/daybook/pkg/dashboard"
	"github.com/klokku/daybook/pkg/datepath"
	"github.com/klokku/daybook/pkg/monthcache"
	"github.com/klokku/daybook/pkg/partition"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus

	Fetcher partition.Fetcher
	Loader  *partition.LoaderImpl
	Cache   *monthcache.Cache

	DashboardService *dashboard.ServiceImpl
	StatusTracker    *dashboard.StatusTracker
	CsvRenderer      *dashboard.CsvSeriesRendererImpl
	DashboardHandler *dashboard.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(cfg config.Application, clock utils.Clock) (*Dependencies, error) {
	deps := &Dependencies{}

	var startDate datepath.Date
	if cfg.StartDate != "" {
		d, err := datepath.ParseDate(cfg.StartDate)
		if err != nil {
			return nil, fmt.Errorf("invalid startdate: %w", err)
		}
		startDate = d
	}

	deps.Clock = clock
	deps.EventBus = event_bus.NewEventBus()

	switch cfg.Data.Source {
	case config.SourceHTTP:
		deps.Fetcher = partition.NewHTTPFetcher(cfg.Data.BaseURL, cfg.Data.FetchTimeout())
	default:
		deps.Fetcher = partition.NewFileFetcher(cfg.Data.Dir)
	}
	deps.Loader = partition.NewLoader(deps.Fetcher, cfg.Data.Root, deps.EventBus)
	deps.Cache = monthcache.New(deps.Loader, deps.EventBus)

	deps.StatusTracker = dashboard.NewStatusTracker(deps.EventBus)
	deps.DashboardService = dashboard.NewService(deps.Loader, deps.Cache, deps.Clock, startDate)
	deps.CsvRenderer = dashboard.NewCsvSeriesRenderer()
	deps.DashboardHandler = dashboard.NewHandler(deps.DashboardService, deps.StatusTracker, deps.CsvRenderer)

	return deps, nil
}
