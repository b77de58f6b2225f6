package chart

import (
	"strings"

	"github.com/bobmcallan/vire-chart/internal/models"
)

// cardinalTension 0 gives the classic Catmull-Rom-like cardinal spline
const cardinalTension = 0.0

const (
	lineColor = "steelblue"
	areaColor = "lightsteelblue"
)

type point struct {
	x, y float64
}

// pathBuilder accumulates SVG path commands
type pathBuilder struct {
	b strings.Builder
}

func (p *pathBuilder) moveTo(x, y float64) {
	p.b.WriteString("M" + num(x) + "," + num(y))
}

func (p *pathBuilder) lineTo(x, y float64) {
	p.b.WriteString("L" + num(x) + "," + num(y))
}

func (p *pathBuilder) bezierCurveTo(x1, y1, x2, y2, x, y float64) {
	p.b.WriteString("C" + num(x1) + "," + num(y1) + "," + num(x2) + "," + num(y2) + "," + num(x) + "," + num(y))
}

func (p *pathBuilder) closePath() {
	p.b.WriteString("Z")
}

func (p *pathBuilder) String() string {
	return p.b.String()
}

// cardinal appends a cardinal spline through pts. Each interior segment
// p[i]→p[i+1] uses control points p[i] + k(p[i+1]-p[i-1]) and
// p[i+1] + k(p[i]-p[i+2]) with k = (1-tension)/6. The outer control point of
// the first and last segment sits on the endpoint itself.
func (p *pathBuilder) cardinal(pts []point, tension float64, continueLine bool) {
	if len(pts) == 0 {
		return
	}
	if continueLine {
		p.lineTo(pts[0].x, pts[0].y)
	} else {
		p.moveTo(pts[0].x, pts[0].y)
	}
	if len(pts) == 2 {
		p.lineTo(pts[1].x, pts[1].y)
		return
	}
	k := (1 - tension) / 6
	at := func(i int) point {
		return pts[max(0, min(len(pts)-1, i))]
	}
	for i := 0; i < len(pts)-1; i++ {
		prev, cur, next, after := at(i-1), pts[i], pts[i+1], at(i+2)
		if i == 0 {
			prev = next
		}
		if i == len(pts)-2 {
			after = cur
		}
		p.bezierCurveTo(
			cur.x+k*(next.x-prev.x), cur.y+k*(next.y-prev.y),
			next.x+k*(cur.x-after.x), next.y+k*(cur.y-after.y),
			next.x, next.y,
		)
	}
}

// linear appends a polyline through pts
func (p *pathBuilder) linear(pts []point, continueLine bool) {
	for i, pt := range pts {
		if i == 0 && !continueLine {
			p.moveTo(pt.x, pt.y)
			continue
		}
		p.lineTo(pt.x, pt.y)
	}
}

func pricePoints(bars []models.DailyBar, scales Scales) []point {
	pts := make([]point, len(bars))
	for i, b := range bars {
		pts[i] = point{x: scales.X.Scale(b.Date), y: scales.Price.Scale(b.Close)}
	}
	return pts
}

func volumePoints(bars []models.DailyBar, scales Scales) []point {
	pts := make([]point, len(bars))
	for i, b := range bars {
		pts[i] = point{x: scales.X.Scale(b.Date), y: scales.Volume.Scale(float64(b.Volume))}
	}
	return pts
}

// PriceLinePath returns the smoothed close-price path
func PriceLinePath(bars []models.DailyBar, scales Scales) string {
	var p pathBuilder
	p.cardinal(pricePoints(bars, scales), cardinalTension, false)
	return p.String()
}

// PriceAreaPath returns the area under the smoothed close-price line down to
// the baseline.
func PriceAreaPath(bars []models.DailyBar, scales Scales, baseline float64) string {
	pts := pricePoints(bars, scales)
	var p pathBuilder
	p.cardinal(pts, cardinalTension, false)
	closeToBaseline(&p, pts, baseline)
	return p.String()
}

// VolumeAreaPath returns the unsmoothed volume area down to the baseline
func VolumeAreaPath(bars []models.DailyBar, scales Scales, baseline float64) string {
	pts := volumePoints(bars, scales)
	var p pathBuilder
	p.linear(pts, false)
	closeToBaseline(&p, pts, baseline)
	return p.String()
}

func closeToBaseline(p *pathBuilder, pts []point, baseline float64) {
	if len(pts) == 0 {
		return
	}
	p.lineTo(pts[len(pts)-1].x, baseline)
	p.lineTo(pts[0].x, baseline)
	p.closePath()
}

// renderSeries draws the static series paths. They are never touched by
// pointer interaction.
func renderSeries(plot *Element, cfg Config, bars []models.DailyBar, scales Scales) {
	plot.AppendNew("path").
		Set("class", "price-line").
		Set("fill", "none").
		Set("stroke", lineColor).
		Set("stroke-width", "2").
		Set("d", PriceLinePath(bars, scales))

	if cfg.Mode == models.ModeDualAxis && scales.HasVolume {
		plot.AppendNew("path").
			Set("class", "volume-area").
			Set("fill", areaColor).
			Set("opacity", "0.5").
			Set("d", VolumeAreaPath(bars, scales, cfg.Geometry.Height))
		return
	}

	plot.AppendNew("path").
		Set("class", "price-area").
		Set("fill", areaColor).
		Set("opacity", "0.5").
		Set("d", PriceAreaPath(bars, scales, cfg.Geometry.Height))
}
