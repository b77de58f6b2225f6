package chart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	engine "github.com/bobmcallan/vire-chart/internal/chart"
	"github.com/bobmcallan/vire-chart/internal/common"
	"github.com/bobmcallan/vire-chart/internal/models"
)

// BarSource supplies bars for one symbol and calendar year
type BarSource interface {
	Fetch(ctx context.Context, symbol string, year int) ([]models.DailyBar, error)
}

// Viewer shows one chart at a time on its own surface. Each Show replaces
// the previous chart; a Show that is superseded before its data arrives
// leaves the surface untouched.
type Viewer struct {
	source   BarSource
	mode     models.ChartMode
	geometry models.Geometry
	surface  *engine.Surface
	logger   *common.Logger

	mu       sync.Mutex
	gen      uint64
	cancel   context.CancelFunc
	renderer *engine.Renderer
	warning  string
	symbol   string
	year     int
}

// NewViewer creates a viewer drawing in the given mode and geometry
func NewViewer(source BarSource, mode models.ChartMode, geometry models.Geometry, logger *common.Logger) *Viewer {
	return &Viewer{
		source:   source,
		mode:     mode,
		geometry: geometry,
		surface:  engine.NewSurface(),
		logger:   logger,
	}
}

// Surface returns the drawing surface the viewer mounts charts on
func (v *Viewer) Surface() *engine.Surface {
	return v.surface
}

// Mode returns the chart layout
func (v *Viewer) Mode() models.ChartMode {
	return v.mode
}

// Show retrieves bars for symbol and year and mounts a chart for them.
//
// A provider warning or a degenerate dataset leaves the surface empty and
// is exposed through Warning. A failed retrieval clears the previous chart.
// An aborted retrieval changes nothing.
func (v *Viewer) Show(ctx context.Context, symbol string, year int) error {
	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	v.gen++
	gen := v.gen
	v.cancel = cancel
	v.mu.Unlock()
	defer cancel()

	bars, err := v.source.Fetch(ctx, symbol, year)

	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.gen || errors.Is(err, common.ErrRetrievalAborted) {
		if err == nil {
			err = fmt.Errorf("%s %d superseded: %w", symbol, year, common.ErrRetrievalAborted)
		}
		v.logger.Debug().Str("symbol", symbol).Int("year", year).Msg("Chart request aborted")
		return err
	}
	v.cancel = nil

	// every other outcome replaces what is on screen
	v.unmountLocked()
	v.symbol, v.year = symbol, year

	if err != nil {
		if msg, ok := common.WarningMessage(err); ok {
			v.warning = msg
		}
		return err
	}

	r, err := engine.NewRenderer(engine.Config{Symbol: symbol, Mode: v.mode, Geometry: v.geometry}, bars, v.logger)
	if err != nil {
		if msg, ok := common.WarningMessage(err); ok {
			v.warning = msg
		}
		v.logger.Warn().Err(err).Str("symbol", symbol).Int("year", year).Msg("Chart not rendered")
		return err
	}

	r.Attach(v.surface)
	v.renderer = r
	v.logger.Info().
		Str("symbol", symbol).
		Int("year", year).
		Str("mode", v.mode.String()).
		Int("bars", len(bars)).
		Msg("Chart shown")
	return nil
}

func (v *Viewer) unmountLocked() {
	if v.renderer != nil {
		v.renderer.Detach()
		v.renderer = nil
	}
	v.warning = ""
}

// Warning returns the message shown in place of a chart, if any
func (v *Viewer) Warning() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.warning
}

// Showing reports whether a chart is mounted
func (v *Viewer) Showing() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.renderer != nil
}

// Current returns the symbol and year of the last completed Show
func (v *Viewer) Current() (string, int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.symbol, v.year
}

// SVG returns the mounted chart markup, empty when nothing is shown
func (v *Viewer) SVG() string {
	return v.surface.Markup()
}

// Bars returns the bars of the mounted chart
func (v *Viewer) Bars() []models.DailyBar {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.renderer == nil {
		return nil
	}
	return v.renderer.Bars()
}

// Pointer delivers a pointer event to the mounted chart and returns the
// resulting focus and focus overlay markup. ok is false when no chart is
// mounted.
func (v *Viewer) Pointer(ev engine.PointerEvent) (focus models.FocusState, overlay string, ok bool) {
	return v.surface.Interact(ev, "g.focus", "#side-tooltip")
}

// Close cancels any pending Show and unmounts the chart
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.gen++
	v.unmountLocked()
}
