package chart

import (
	"math"
	"sort"
	"time"

	"github.com/bobmcallan/vire-chart/internal/common"
	"github.com/bobmcallan/vire-chart/internal/models"
)

const (
	crosshairColor     = "brown"
	crosshairDash      = "3,3"
	crosshairOpacity   = "0.7"
	markerRadius       = 5
	dateLabelOffset    = 8
	projectionNameBack = 60
	simpleLabelOffset  = 10
)

// insertionIndex returns i with dates[i-1] <= v < dates[i], clamped to
// [1, len(dates)-1]. dates must hold at least two ascending values.
func insertionIndex(dates []time.Time, v time.Time) int {
	n := len(dates)
	i := 1 + sort.Search(n-1, func(k int) bool { return dates[k+1].After(v) })
	if i > n-1 {
		i = n - 1
	}
	return i
}

// NearestIndex returns the position of the date closest to v. On an exact
// tie the earlier date wins. The result is always within [0, len(dates)-1].
func NearestIndex(dates []time.Time, v time.Time) int {
	if len(dates) < 2 {
		return 0
	}

	i := insertionIndex(dates, v)
	d0, d1 := dates[i-1], dates[i]
	if v.Sub(d0) > d1.Sub(v) {
		return i
	}
	return i - 1
}

func (r *Renderer) onEnter(PointerEvent) {
	r.focus.Visible = true
	r.focusGroup.Unset("display")
}

func (r *Renderer) onMove(ev PointerEvent) {
	if !r.focus.Visible {
		return
	}

	x := clampToPlot(ev.X, r.cfg.Geometry.Width)
	v := r.scales.X.Invert(x)
	if x != ev.X || v.Before(r.dates[0]) || v.After(r.dates[len(r.dates)-1]) {
		r.logger.Trace().
			Err(common.ErrNearestLookupOutOfRange).
			Float64("x", ev.X).
			Time("date", v).
			Msg("Pointer outside date domain, clamping")
	}

	idx := NearestIndex(r.dates, v)
	r.focus.Index = idx
	r.focus.HasIndex = true

	bar := r.bars[idx]
	r.focusGroup.Clear()
	r.drawCrosshair(bar)

	removeTooltip(r.plot)
	layoutTooltip(r.plot, tooltipAnchorX(r.cfg.Geometry), TooltipLines(bar))
}

// clampToPlot keeps a pointer x inside [0, width] so the inverted date
// stays representable. NaN is treated as the left edge.
func clampToPlot(x, width float64) float64 {
	switch {
	case math.IsNaN(x) || x < 0:
		return 0
	case x > width:
		return width
	}
	return x
}

func (r *Renderer) onLeave(PointerEvent) {
	r.focus = models.FocusState{}
	r.focusGroup.Clear()
	r.focusGroup.Set("display", "none")
	removeTooltip(r.plot)
}

// drawCrosshair rebuilds the projection lines, markers and labels for bar
// inside the focus group. Positions come from the current scales each time.
func (r *Renderer) drawCrosshair(bar models.DailyBar) {
	geo := r.cfg.Geometry
	xd := r.scales.X.Scale(bar.Date)
	yc := r.scales.Price.Scale(bar.Close)
	g := r.focusGroup

	projection(g, "x-projection", xd, yc, xd, geo.Height)
	projection(g, "y-projection", 0, yc, xd, yc)
	marker(g, "x-y", xd, yc)

	if r.cfg.Mode == models.ModeDualAxis && r.scales.HasVolume {
		yv := r.scales.Volume.Scale(float64(bar.Volume))

		projection(g, "y1-projection", xd, yv, geo.Width, yv)
		marker(g, "x-y1", xd, yv)

		g.AppendNew("text").
			Set("class", "date").
			Set("transform", "rotate(-90)").
			SetNum("x", -(yc+geo.Height)/2).
			SetNum("y", xd-dateLabelOffset).
			Set("text-anchor", "middle").
			SetText("Date: " + formatTooltipDate(bar.Date))

		g.AppendNew("text").
			Set("class", "y-projection-name").
			SetNum("x", xd/2-projectionNameBack).
			SetNum("y", yc).
			Set("dy", "1.25em").
			SetText("Close: US $ " + formatPlain(bar.Close))

		g.AppendNew("text").
			Set("class", "y1-projection-name").
			SetNum("x", xd+(geo.Width-xd)/2-projectionNameBack).
			SetNum("y", yv).
			Set("dy", "-0.5em").
			SetText("Volume: " + FormatInt(bar.Volume))
		return
	}

	g.AppendNew("text").
		Set("class", "y-projection-name").
		SetNum("x", xd+simpleLabelOffset).
		SetNum("y", yc-simpleLabelOffset).
		SetText("Close: " + FormatNumber(bar.Close))

	g.AppendNew("text").
		Set("class", "date").
		SetNum("x", xd+simpleLabelOffset).
		SetNum("y", yc-25).
		SetText("Date: " + formatTooltipDate(bar.Date))
}

func projection(g *Element, class string, x1, y1, x2, y2 float64) {
	g.AppendNew("line").
		Set("class", class).
		SetNum("x1", x1).
		SetNum("y1", y1).
		SetNum("x2", x2).
		SetNum("y2", y2).
		Set("stroke", crosshairColor).
		Set("stroke-dasharray", crosshairDash).
		Set("opacity", crosshairOpacity)
}

func marker(g *Element, class string, cx, cy float64) {
	g.AppendNew("circle").
		Set("class", class).
		SetNum("cx", cx).
		SetNum("cy", cy).
		SetNum("r", markerRadius).
		Set("fill", "none").
		Set("stroke", crosshairColor).
		Set("stroke-width", "2")
}
