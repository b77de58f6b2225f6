package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/vire-chart/internal/app"
	"github.com/bobmcallan/vire-chart/internal/common"
	"github.com/bobmcallan/vire-chart/internal/models"
	"github.com/bobmcallan/vire-chart/internal/server"
)

// Command line flags
var (
	configPath string

	// Render command flags
	symbol     string
	year       int
	mode       string
	format     string
	outputFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "vire-chart",
		Short:   "Interactive one-year daily stock charts",
		Version: common.GetFullVersion(),
		RunE:    runServe,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: VIRE_CONFIG, then vire-chart.toml next to the binary)")

	rootCmd.AddCommand(buildServeCmd(), buildRenderCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve chart endpoints and pointer sessions over HTTP",
		RunE:  runServe,
	}
}

func buildRenderCmd() *cobra.Command {
	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Render one chart to a file",
		RunE:  runRender,
	}

	renderCmd.Flags().StringVarP(&symbol, "symbol", "s", "", "Ticker symbol (e.g. AAPL.US), defaults to the configured chart")
	renderCmd.Flags().IntVarP(&year, "year", "y", 0, "Calendar year, defaults to the configured chart")
	renderCmd.Flags().StringVarP(&mode, "mode", "m", "", "Layout: dual or simple")
	renderCmd.Flags().StringVarP(&format, "format", "f", "svg", "Output format: svg or png")
	renderCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (e.g. ./aapl-2022.svg)")

	renderCmd.MarkFlagRequired("output")

	return renderCmd
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := app.NewApp(configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}

	common.PrintBanner(a.Config, a.Logger)

	// Start background services
	a.StartWarmCache()
	a.StartRefreshScheduler()

	srv := server.NewServer(a)
	shutdownChan := make(chan struct{}, 1)
	srv.SetShutdownChannel(shutdownChan)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	a.Logger.Info().
		Str("url", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)).
		Str("session", fmt.Sprintf("ws://localhost:%d/api/charts/ws", a.Config.Server.Port)).
		Msg("Server ready")

	// Wait for interrupt signal or HTTP shutdown request
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
		a.Logger.Info().Msg("Shutdown signal received")
	case <-shutdownChan:
	}

	common.PrintShutdownBanner(a.Logger)

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	a.Close()
	a.Logger.Info().Msg("Server stopped")
	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	a, err := app.NewApp(configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer a.Close()

	if symbol == "" {
		symbol = a.Config.Chart.Symbol
	}
	if year == 0 {
		year = a.Config.Chart.Year
	}
	chartMode := a.ChartService.DefaultMode()
	if mode != "" {
		if chartMode, err = models.ParseChartMode(mode); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	var body []byte
	switch strings.ToLower(format) {
	case "svg":
		view, err := a.ChartService.Render(ctx, strings.ToUpper(symbol), year, chartMode)
		if err != nil {
			return err
		}
		if view.Warning != "" {
			return fmt.Errorf("%s %d: %s", view.Symbol, view.Year, view.Warning)
		}
		body = []byte(view.SVG)
	case "png":
		body, err = a.ChartService.RenderPNG(ctx, strings.ToUpper(symbol), year, chartMode)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q (want svg or png)", format)
	}

	if err := os.WriteFile(outputFile, body, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputFile, err)
	}

	a.Logger.Info().
		Str("symbol", strings.ToUpper(symbol)).
		Int("year", year).
		Str("mode", chartMode.String()).
		Str("output", outputFile).
		Msg("Chart written")
	return nil
}
