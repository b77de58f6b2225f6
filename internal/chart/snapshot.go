package chart

import (
	"bytes"
	"fmt"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/vire-chart/internal/models"
)

// RenderPNG renders a static raster snapshot of the chart. Close prices use
// the primary axis; in dual-axis mode volume is drawn on the secondary axis
// with the same padded domains as the interactive chart.
func RenderPNG(cfg Config, bars []models.DailyBar) ([]byte, error) {
	if err := ValidateBars(bars); err != nil {
		return nil, err
	}
	scales, err := BuildScales(bars, cfg.Geometry, cfg.Mode)
	if err != nil {
		return nil, err
	}

	xValues := make([]time.Time, len(bars))
	closeY := make([]float64, len(bars))
	volumeY := make([]float64, len(bars))
	for i, b := range bars {
		xValues[i] = b.Date
		closeY[i] = b.Close
		volumeY[i] = float64(b.Volume)
	}

	closeSeries := gochart.TimeSeries{
		Name: "Close",
		Style: gochart.Style{
			StrokeColor: drawing.ColorFromHex("4682b4"), // steelblue
			StrokeWidth: 2,
		},
		XValues: xValues,
		YValues: closeY,
	}

	graph := gochart.Chart{
		Title:  cfg.Symbol + priceAxisTitleSuffix,
		Width:  int(cfg.Geometry.OuterWidth()),
		Height: int(cfg.Geometry.OuterHeight()),
		Background: gochart.Style{
			Padding: gochart.Box{
				Top:    int(cfg.Geometry.Margin.Top) + 20,
				Left:   int(cfg.Geometry.Margin.Left),
				Right:  int(cfg.Geometry.Margin.Right),
				Bottom: int(cfg.Geometry.Margin.Bottom),
			},
		},
		XAxis: gochart.XAxis{
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return formatAxisDate(gochart.TimeFromFloat64(t))
				}
				return ""
			},
		},
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{Min: scales.Price.D0, Max: scales.Price.D1},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return FormatNumber(f)
				}
				return ""
			},
		},
	}

	if scales.HasVolume {
		volumeSeries := gochart.TimeSeries{
			Name:  volumeAxisTitle,
			YAxis: gochart.YAxisSecondary,
			Style: gochart.Style{
				StrokeColor: drawing.ColorFromHex("b0c4de"), // lightsteelblue
				FillColor:   drawing.ColorFromHex("b0c4de").WithAlpha(128),
			},
			XValues: xValues,
			YValues: volumeY,
		}
		graph.YAxisSecondary = gochart.YAxis{
			Range: &gochart.ContinuousRange{Min: scales.Volume.D0, Max: scales.Volume.D1},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return VolumeTickText(f)
				}
				return ""
			},
		}
		graph.Series = []gochart.Series{volumeSeries, closeSeries}
	} else {
		closeSeries.Style.FillColor = drawing.ColorFromHex("b0c4de").WithAlpha(128)
		graph.Series = []gochart.Series{closeSeries}
	}

	graph.Elements = []gochart.Renderable{
		gochart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
