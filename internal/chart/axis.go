package chart

import (
	"github.com/bobmcallan/vire-chart/internal/models"
)

const (
	timeTickCount        = 11 // about one tick per month over a year
	dualPriceTickCount   = 9
	defaultTickCount     = 10
	dualPriceTickSize    = 5
	defaultTickSize      = 6
	volumeTickSize       = 5
	tickPadding          = 3
	gridOpacity          = "0.1"
	tickFontSize         = "1.2em"
	axisTitleFontSize    = "1.75em"
	axisTextColor        = "currentColor"
	axisTitleColor       = "#000"
	axisFontFamily       = "sans-serif"
	axisBaseFontSize     = "10"
	volumeAxisTitle      = "Volume"
	priceAxisTitleSuffix = " daily close ($)"
)

// axisTick is one labelled position along an axis
type axisTick struct {
	pos   float64
	label string
}

// renderAxes draws the time axis, the price axis and, in dual-axis mode,
// the volume axis into plot.
func renderAxes(plot *Element, cfg Config, scales Scales) {
	renderTimeAxis(plot, cfg.Geometry, scales.X)
	renderPriceAxis(plot, cfg, scales.Price)
	if cfg.Mode == models.ModeDualAxis && scales.HasVolume {
		renderVolumeAxis(plot, cfg.Geometry, scales.Volume)
	}
}

func newAxisGroup(plot *Element, class, anchor string) *Element {
	return plot.AppendNew("g").
		Set("class", "axis "+class).
		Set("fill", "none").
		Set("font-size", axisBaseFontSize).
		Set("font-family", axisFontFamily).
		Set("text-anchor", anchor)
}

func newTick(axis *Element, transform string) *Element {
	return axis.AppendNew("g").
		Set("class", "tick").
		Set("opacity", "1").
		Set("transform", transform)
}

func timeAxisTicks(x TimeScale) []axisTick {
	dates := x.Ticks(timeTickCount)
	out := make([]axisTick, len(dates))
	for i, d := range dates {
		out[i] = axisTick{pos: x.Scale(d), label: formatAxisDate(d)}
	}
	return out
}

func linearAxisTicks(s LinearScale, count int, format func(float64) string) []axisTick {
	if format == nil {
		format = s.TickFormat(count)
	}
	values := s.Ticks(count)
	out := make([]axisTick, len(values))
	for i, v := range values {
		out[i] = axisTick{pos: s.Scale(v), label: format(v)}
	}
	return out
}

// renderTimeAxis draws the bottom axis without its domain line
func renderTimeAxis(plot *Element, geo models.Geometry, x TimeScale) {
	axis := newAxisGroup(plot, "axis-x", "middle").
		Set("transform", translate(0, geo.Height))

	for _, t := range timeAxisTicks(x) {
		tick := newTick(axis, translate(t.pos, 0))
		tick.AppendNew("line").
			Set("stroke", axisTextColor).
			SetNum("y2", defaultTickSize)
		tick.AppendNew("text").
			Set("fill", axisTextColor).
			SetNum("y", defaultTickSize+tickPadding).
			Set("dy", "0.71em").
			Set("font-size", tickFontSize).
			SetText(t.label)
	}
}

// renderPriceAxis draws the left axis with faint gridlines across the plot
// and the symbol title on the topmost tick.
func renderPriceAxis(plot *Element, cfg Config, price LinearScale) {
	count, size := defaultTickCount, float64(defaultTickSize)
	if cfg.Mode == models.ModeDualAxis {
		count, size = dualPriceTickCount, dualPriceTickSize
	}

	axis := newAxisGroup(plot, "axis-y", "end")

	ticks := linearAxisTicks(price, count, nil)
	for i, t := range ticks {
		tick := newTick(axis, translate(0, t.pos))
		tick.AppendNew("line").
			Set("stroke", axisTextColor).
			SetNum("x2", -size)
		tick.AppendNew("line").
			Set("class", "grid").
			Set("stroke", axisTextColor).
			SetNum("x2", cfg.Geometry.Width).
			Set("stroke-opacity", gridOpacity)
		tick.AppendNew("text").
			Set("fill", axisTextColor).
			SetNum("x", -(size+tickPadding)).
			Set("dy", "0.32em").
			Set("font-size", tickFontSize).
			SetText(t.label)

		if i == len(ticks)-1 {
			tick.AppendNew("text").
				Set("class", "axis-title").
				Set("fill", axisTextColor).
				SetNum("x", tickPadding).
				Set("dy", "0.32em").
				Set("text-anchor", "start").
				Set("font-weight", "bold").
				Set("font-size", axisTitleFontSize).
				SetText(cfg.Symbol + priceAxisTitleSuffix)
		}
	}
}

// renderVolumeAxis draws the right-hand axis with abbreviated labels
func renderVolumeAxis(plot *Element, geo models.Geometry, volume LinearScale) {
	axis := newAxisGroup(plot, "axis-y1", "start").
		Set("transform", translate(geo.Width, 0))

	for _, t := range linearAxisTicks(volume, defaultTickCount, VolumeTickText) {
		tick := newTick(axis, translate(0, t.pos))
		tick.AppendNew("line").
			Set("stroke", axisTextColor).
			SetNum("x2", volumeTickSize)
		tick.AppendNew("text").
			Set("fill", axisTextColor).
			SetNum("x", volumeTickSize+tickPadding).
			Set("dy", "0.32em").
			Set("font-size", tickFontSize).
			SetText(t.label)
	}

	axis.AppendNew("text").
		Set("class", "axis-title").
		Set("transform", "rotate(270)").
		Set("font-size", axisTitleFontSize).
		SetNum("x", -geo.Height+5).
		SetNum("y", -25).
		Set("dy", "1em").
		Set("fill", axisTitleColor).
		SetText(volumeAxisTitle)
}
