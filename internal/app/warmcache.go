package app

import (
	"context"
	"os"
	"time"

	"github.com/bobmcallan/vire-chart/internal/common"
	chartsvc "github.com/bobmcallan/vire-chart/internal/services/chart"
)

// warmCache pre-fetches the default chart on startup so the first request is fast.
func warmCache(ctx context.Context, source chartsvc.BarSource, chart common.ChartConfig, logger *common.Logger) {
	if os.Getenv("VIRE_WARM_CACHE") == "off" {
		logger.Info().Msg("Warm cache: disabled via VIRE_WARM_CACHE=off")
		return
	}

	start := time.Now()
	logger.Info().Str("symbol", chart.Symbol).Int("year", chart.Year).Msg("Warm cache: starting")

	bars, err := source.Fetch(ctx, chart.Symbol, chart.Year)
	if err != nil {
		if msg, ok := common.WarningMessage(err); ok {
			logger.Info().Str("symbol", chart.Symbol).Str("warning", msg).Msg("Warm cache: provider returned a warning, skipping")
			return
		}
		logger.Warn().Err(err).Str("symbol", chart.Symbol).Msg("Warm cache: retrieval failed")
		return
	}

	logger.Info().
		Str("symbol", chart.Symbol).
		Int("year", chart.Year).
		Int("bars", len(bars)).
		Dur("elapsed", time.Since(start)).
		Msg("Warm cache: complete")
}
