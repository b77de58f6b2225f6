// Package chart draws one year of daily bars as an interactive SVG chart.
//
// A Renderer owns a validated bar sequence, the scales derived from it and
// the current focus. It draws static axes and series once on Attach and then
// rebuilds the focus overlay and tooltip on every pointer event dispatched
// through the Surface.
package chart

import (
	"fmt"
	"time"

	"github.com/bobmcallan/vire-chart/internal/common"
	"github.com/bobmcallan/vire-chart/internal/models"
	"github.com/samber/lo"
)

// Config is the whole configuration surface of a chart
type Config struct {
	Symbol   string
	Mode     models.ChartMode
	Geometry models.Geometry
}

// Renderer draws and drives one chart. Bars, scales and focus belong to the
// renderer alone; pointer handlers close over nothing else.
type Renderer struct {
	cfg    Config
	bars   []models.DailyBar
	dates  []time.Time
	scales Scales
	focus  models.FocusState
	logger *common.Logger

	surface    *Surface
	plot       *Element
	focusGroup *Element
}

// ValidateBars checks that bars can be charted: at least two bars, strictly
// ascending dates and no negative values.
func ValidateBars(bars []models.DailyBar) error {
	if len(bars) < 2 {
		return fmt.Errorf("%d bars: %w", len(bars), common.ErrDegenerateDataset)
	}
	for i, b := range bars {
		if b.Open < 0 || b.High < 0 || b.Low < 0 || b.Close < 0 || b.AdjClose < 0 || b.Volume < 0 {
			return fmt.Errorf("bar %s has a negative value", b.Date.Format("2006-01-02"))
		}
		if i > 0 && !b.Date.After(bars[i-1].Date) {
			return fmt.Errorf("bar %d (%s) not after %s: %w",
				i, b.Date.Format("2006-01-02"), bars[i-1].Date.Format("2006-01-02"), common.ErrUnsortedBars)
		}
	}
	return nil
}

// NewRenderer validates bars and computes the scales. The bars are copied;
// later changes to the caller's slice do not reach the chart.
func NewRenderer(cfg Config, bars []models.DailyBar, logger *common.Logger) (*Renderer, error) {
	if cfg.Geometry.Width <= 0 || cfg.Geometry.Height <= 0 {
		return nil, fmt.Errorf("invalid chart geometry %gx%g", cfg.Geometry.Width, cfg.Geometry.Height)
	}
	if err := ValidateBars(bars); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}

	owned := append([]models.DailyBar(nil), bars...)
	scales, err := BuildScales(owned, cfg.Geometry, cfg.Mode)
	if err != nil {
		return nil, err
	}

	return &Renderer{
		cfg:    cfg,
		bars:   owned,
		dates:  lo.Map(owned, func(b models.DailyBar, _ int) time.Time { return b.Date }),
		scales: scales,
		logger: logger,
	}, nil
}

// Config returns the renderer configuration
func (r *Renderer) Config() Config {
	return r.cfg
}

// Scales returns the scales derived for this chart
func (r *Renderer) Scales() Scales {
	return r.scales
}

// Bars returns a copy of the charted bars
func (r *Renderer) Bars() []models.DailyBar {
	return append([]models.DailyBar(nil), r.bars...)
}

// Focus returns the current focus state
func (r *Renderer) Focus() models.FocusState {
	if s := r.surface; s != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return r.focus
}

// SVG returns the static chart markup without attaching to a surface
func (r *Renderer) SVG() string {
	root, _, _ := r.build()
	return root.String()
}

// Attach mounts the chart on s. Anything already drawn on s, including
// another renderer's chart, is cleared first.
func (r *Renderer) Attach(s *Surface) {
	if r.surface != nil && r.surface != s {
		r.Detach()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev := s.owner; prev != nil && prev != r {
		prev.release()
	}
	s.clearLocked()

	root, plot, focus := r.build()
	s.root.Append(root)
	s.handlers[PointerEnter] = r.onEnter
	s.handlers[PointerMove] = r.onMove
	s.handlers[PointerLeave] = r.onLeave
	s.owner = r

	r.surface = s
	r.plot = plot
	r.focusGroup = focus
	r.focus = models.FocusState{}

	r.logger.Debug().
		Str("surface", s.id).
		Str("symbol", r.cfg.Symbol).
		Str("mode", r.cfg.Mode.String()).
		Int("bars", len(r.bars)).
		Msg("Chart attached")
}

// Detach removes the handlers and every drawn element, focus overlay and
// tooltip included, leaving the surface empty. Detaching an unattached
// renderer does nothing.
func (r *Renderer) Detach() {
	s := r.surface
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.owner == r {
		s.clearLocked()
	}
	r.release()

	r.logger.Debug().Str("surface", s.id).Str("symbol", r.cfg.Symbol).Msg("Chart detached")
}

// release drops the renderer's references to its surface
func (r *Renderer) release() {
	r.surface = nil
	r.plot = nil
	r.focusGroup = nil
	r.focus = models.FocusState{}
}

// build draws the static chart: root svg, plot group, axes, series, the
// hidden focus group and the pointer overlay.
func (r *Renderer) build() (root, plot, focus *Element) {
	geo := r.cfg.Geometry
	outerW, outerH := geo.OuterWidth(), geo.OuterHeight()

	root = NewElement("svg").
		Set("xmlns", "http://www.w3.org/2000/svg").
		SetNum("width", outerW).
		SetNum("height", outerH).
		Set("viewBox", "0 0 "+num(outerW)+" "+num(outerH)).
		Set("style", "max-width: 100%; height: auto;").
		Set("preserveAspectRatio", "xMinYMin meet")

	plot = root.AppendNew("g").
		Set("class", "plot").
		Set("transform", translate(geo.Margin.Left, geo.Margin.Top))

	renderAxes(plot, r.cfg, r.scales)
	renderSeries(plot, r.cfg, r.bars, r.scales)

	focus = plot.AppendNew("g").
		Set("class", "focus").
		Set("display", "none")

	plot.AppendNew("rect").
		Set("class", "overlay").
		SetNum("width", geo.Width).
		SetNum("height", geo.Height).
		Set("fill", "none").
		Set("pointer-events", "all")

	return root, plot, focus
}
