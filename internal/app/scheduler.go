package app

import (
	"context"
	"time"

	"github.com/bobmcallan/vire-chart/internal/common"
	"github.com/bobmcallan/vire-chart/internal/interfaces"
	chartsvc "github.com/bobmcallan/vire-chart/internal/services/chart"
)

// startRefreshScheduler re-fetches the default chart on a fixed interval.
// Closed years never change, so it only refreshes while the year is current.
func startRefreshScheduler(ctx context.Context, source chartsvc.BarSource, cache interfaces.BarCache, chart common.ChartConfig, logger *common.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Refresh scheduler: stopped")
			return
		case now := <-ticker.C:
			refreshDefaultChart(ctx, source, cache, chart, logger, now)
		}
	}
}

func refreshDefaultChart(ctx context.Context, source chartsvc.BarSource, cache interfaces.BarCache, chart common.ChartConfig, logger *common.Logger, now time.Time) bool {
	if chart.Year < now.Year() {
		return false
	}

	start := time.Now()
	if err := cache.Delete(ctx, chart.Symbol, chart.Year); err != nil {
		logger.Warn().Err(err).Str("symbol", chart.Symbol).Msg("Chart refresh: cache eviction failed")
	}

	bars, err := source.Fetch(ctx, chart.Symbol, chart.Year)
	if err != nil {
		logger.Warn().Err(err).Str("symbol", chart.Symbol).Int("year", chart.Year).Msg("Chart refresh: retrieval failed")
		return false
	}

	logger.Info().
		Str("symbol", chart.Symbol).
		Int("year", chart.Year).
		Int("bars", len(bars)).
		Dur("elapsed", time.Since(start)).
		Msg("Chart refresh: complete")
	return true
}
