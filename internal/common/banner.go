package common

import (
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner displays the application startup banner to stderr.
func PrintBanner(config *Config, logger *Logger) {
	version := GetVersion()
	build := GetBuild()
	commit := GetGitCommit()
	serviceURL := fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)
	cachePath := config.Storage.Cache.Path
	chartDefault := fmt.Sprintf("%s %d", config.Chart.Symbol, config.Chart.Year)

	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	width := 70
	hr := lineColor + strings.Repeat("═", width) + banner.ColorReset

	art := []string{
		` 888     888 8888888 8888888b.  8888888888`,
		` 888     888   888   888   Y88b 888`,
		` 888     888   888   888    888 888`,
		` Y88b   d88P   888   888   d88P 8888888`,
		`  Y88b d88P    888   8888888P'  888`,
		`   Y88o88P     888   888 T88b   888`,
		`    Y888P      888   888  T88b  888`,
		`     Y8P     8888888 888   T88b 8888888888`,
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "%s\n", hr)
	fmt.Fprintf(os.Stderr, "\n")
	for _, line := range art {
		fmt.Fprintf(os.Stderr, "%s%s%s\n", textColor, line, banner.ColorReset)
	}
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "%s  Daily OHLCV Charts%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "%s\n", hr)
	fmt.Fprintf(os.Stderr, "\n")

	kvPad := 16
	kvLines := bannerFacts(config)
	for _, kv := range kvLines {
		fmt.Fprintf(os.Stderr, "%s  %-*s %s%s\n", textColor, kvPad, kv[0], kv[1], banner.ColorReset)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "%s\n", hr)
	fmt.Fprintf(os.Stderr, "\n")

	logger.Info().
		Str("version", version).
		Str("build", build).
		Str("commit", commit).
		Str("environment", config.Environment).
		Str("service_url", serviceURL).
		Str("cache_path", cachePath).
		Str("default_chart", chartDefault).
		Str("mode", config.Chart.ChartMode().String()).
		Str("eodhd_url", config.Clients.EODHD.BaseURL).
		Msg("Application started")
}

// PrintShutdownBanner displays the application shutdown banner to stderr.
func PrintShutdownBanner(logger *Logger) {
	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	width := 42
	hr := lineColor + strings.Repeat("═", width) + banner.ColorReset

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "%s\n", hr)
	fmt.Fprintf(os.Stderr, "%s  VIRE CHART - SHUTTING DOWN%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(os.Stderr, "%s\n", hr)
	fmt.Fprintf(os.Stderr, "\n")

	logger.Info().Msg("Application shutting down")
}

// bannerFacts lists the startup key/value rows: build, where the server
// listens, which chart it draws by default and where bars come from.
func bannerFacts(config *Config) [][2]string {
	geo := config.Chart.Geometry()
	ttl := "by year (1h open, 30d closed)"
	if d := config.Storage.Cache.GetTTL(); d > 0 {
		ttl = d.String()
	}
	apiKey := "configured"
	if config.Clients.EODHD.APIKey == "demo" {
		apiKey = "demo"
	}

	return [][2]string{
		{"Version", GetVersion()},
		{"Build", GetBuild()},
		{"Commit", GetGitCommit()},
		{"Environment", config.Environment},
		{"Service URL", fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)},
		{"Session", fmt.Sprintf("ws://%s:%d/api/charts/ws", config.Server.Host, config.Server.Port)},
		{"Default chart", fmt.Sprintf("%s %d", config.Chart.Symbol, config.Chart.Year)},
		{"Layout", fmt.Sprintf("%s, %gx%g plot (%gx%g with margins)", config.Chart.ChartMode(), geo.Width, geo.Height, geo.OuterWidth(), geo.OuterHeight())},
		{"EODHD", fmt.Sprintf("%s (%d req/s, key %s)", config.Clients.EODHD.BaseURL, config.Clients.EODHD.RateLimit, apiKey)},
		{"Bar cache", config.Storage.Cache.Path},
		{"Cache TTL", ttl},
	}
}
