// Package app wires configuration, logging, the EODHD client, the bar cache
// and the chart service into one App shared by the server binary.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/vire-chart/internal/clients/eodhd"
	"github.com/bobmcallan/vire-chart/internal/common"
	"github.com/bobmcallan/vire-chart/internal/interfaces"
	chartsvc "github.com/bobmcallan/vire-chart/internal/services/chart"
	"github.com/bobmcallan/vire-chart/internal/storage/barcache"
)

// App holds the initialized clients and services.
type App struct {
	Config       *common.Config
	Logger       *common.Logger
	EODHDClient  interfaces.EODHDClient
	Cache        *barcache.Store
	ChartService *chartsvc.Service
	StartupTime  time.Time

	schedulerCancel context.CancelFunc
	warmCacheCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// resolveConfigPath picks the provided path, then VIRE_CONFIG, then
// vire-chart.toml next to the binary, then the development config.
func resolveConfigPath(configPath, binDir string) string {
	if configPath == "" {
		configPath = os.Getenv("VIRE_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "vire-chart.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/vire-chart.toml"
		}
	}
	return configPath
}

// NewApp loads configuration from configPath (or the default locations)
// and initializes every component.
func NewApp(configPath string) (*App, error) {
	common.LoadVersionFromFile()
	binDir := getBinaryDir()

	config, err := common.LoadConfig(resolveConfigPath(configPath, binDir))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Relative cache and log paths live next to the binary
	if p := config.Storage.Cache.Path; p != "" && p != barcache.MemoryPath && !filepath.IsAbs(p) {
		config.Storage.Cache.Path = filepath.Join(binDir, p)
	}
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(binDir, config.Logging.FilePath)
	}

	return NewAppWithConfig(config, common.NewLoggerFromConfig(config.Logging))
}

// NewAppWithConfig initializes every component from an already loaded config.
func NewAppWithConfig(config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()

	cache, err := barcache.NewStore(logger, config.Storage.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bar cache: %w", err)
	}

	if config.Clients.EODHD.APIKey == "demo" {
		logger.Warn().Msg("EODHD API key not configured - using the demo key, most symbols will return a warning")
	}

	client := eodhd.NewClient(config.Clients.EODHD.APIKey,
		eodhd.WithBaseURL(config.Clients.EODHD.BaseURL),
		eodhd.WithLogger(logger),
		eodhd.WithRateLimit(config.Clients.EODHD.RateLimit),
		eodhd.WithTimeout(config.Clients.EODHD.GetTimeout()),
	)

	a := &App{
		Config:       config,
		Logger:       logger,
		EODHDClient:  client,
		Cache:        cache,
		ChartService: chartsvc.NewService(client, cache, config, logger),
		StartupTime:  startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")
	return a, nil
}

// Close releases all resources held by the App.
// Shutdown order: cancel scheduler, cancel warm cache, close cache.
func (a *App) Close() {
	if a.schedulerCancel != nil {
		a.schedulerCancel()
		a.schedulerCancel = nil
	}
	if a.warmCacheCancel != nil {
		a.warmCacheCancel()
		a.warmCacheCancel = nil
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close bar cache")
		}
		a.Cache = nil
	}
}

// StartWarmCache fetches the default chart's bars in the background.
func (a *App) StartWarmCache() {
	warmCtx, warmCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	a.warmCacheCancel = warmCancel
	go func() {
		defer warmCancel()
		warmCache(warmCtx, a.ChartService.NewFetcher(), a.Config.Chart, a.Logger)
	}()
}

// StartRefreshScheduler keeps the default chart's bars fresh while its year
// is still open.
func (a *App) StartRefreshScheduler() {
	ctx, cancel := context.WithCancel(context.Background())
	a.schedulerCancel = cancel
	go startRefreshScheduler(ctx, a.ChartService.NewFetcher(), a.Cache, a.Config.Chart, a.Logger, common.FreshnessCurrentYear)
}
