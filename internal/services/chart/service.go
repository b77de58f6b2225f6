// Package chart serves rendered charts: it retrieves a year of bars through
// a Fetcher and mounts them on a Viewer.
package chart

import (
	"context"
	"time"

	engine "github.com/bobmcallan/vire-chart/internal/chart"
	"github.com/bobmcallan/vire-chart/internal/common"
	"github.com/bobmcallan/vire-chart/internal/interfaces"
	"github.com/bobmcallan/vire-chart/internal/models"
)

// Service creates viewers and one-shot renderings. The EODHD client and the
// bar cache are shared; every viewer gets its own Fetcher so that one
// session superseding its own request never aborts another session's.
type Service struct {
	eodhd    interfaces.EODHDClient
	cache    interfaces.BarCache
	ttl      time.Duration
	geometry models.Geometry
	mode     models.ChartMode
	logger   *common.Logger
}

// NewService creates a chart service. cache may be nil.
func NewService(eodhd interfaces.EODHDClient, cache interfaces.BarCache, config *common.Config, logger *common.Logger) *Service {
	return &Service{
		eodhd:    eodhd,
		cache:    cache,
		ttl:      config.Storage.Cache.GetTTL(),
		geometry: config.Chart.Geometry(),
		mode:     config.Chart.ChartMode(),
		logger:   logger,
	}
}

// DefaultMode returns the configured chart layout
func (s *Service) DefaultMode() models.ChartMode {
	return s.mode
}

// NewFetcher returns a fetcher over the shared client and cache
func (s *Service) NewFetcher() *Fetcher {
	return NewFetcher(s.eodhd, s.cache, s.ttl, s.logger)
}

// NewViewer returns a viewer with its own fetcher
func (s *Service) NewViewer(mode models.ChartMode) *Viewer {
	return NewViewer(s.NewFetcher(), mode, s.geometry, s.logger)
}

// Render shows symbol and year once and returns the static markup. Provider
// warnings and degenerate data are reported in the view, not as errors.
func (s *Service) Render(ctx context.Context, symbol string, year int, mode models.ChartMode) (*models.ChartView, error) {
	v := s.NewViewer(mode)
	defer v.Close()

	view := &models.ChartView{Symbol: symbol, Year: year, Mode: mode.String()}
	if err := v.Show(ctx, symbol, year); err != nil {
		msg, ok := common.WarningMessage(err)
		if !ok {
			return nil, err
		}
		view.Warning = msg
		return view, nil
	}

	view.SVG = v.SVG()
	view.Bars = len(v.Bars())
	return view, nil
}

// RenderPNG retrieves symbol and year and returns a raster snapshot
func (s *Service) RenderPNG(ctx context.Context, symbol string, year int, mode models.ChartMode) ([]byte, error) {
	bars, err := s.NewFetcher().Fetch(ctx, symbol, year)
	if err != nil {
		return nil, err
	}
	return engine.RenderPNG(engine.Config{Symbol: symbol, Mode: mode, Geometry: s.geometry}, bars)
}
