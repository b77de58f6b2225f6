// Package models defines data structures for Vire Chart
package models

import (
	"fmt"
	"strings"
	"time"
)

// DailyBar represents a single trading day's price data
type DailyBar struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adjusted_close"`
	Volume   int64     `json:"volume"`
}

// Margin is the space around the plotted content area, in pixels
type Margin struct {
	Top    float64 `json:"top" toml:"top"`
	Right  float64 `json:"right" toml:"right"`
	Bottom float64 `json:"bottom" toml:"bottom"`
	Left   float64 `json:"left" toml:"left"`
}

// Geometry holds the pixel size of the content area plus its margins.
// Width and Height exclude the margins.
type Geometry struct {
	Width  float64 `json:"width" toml:"width"`
	Height float64 `json:"height" toml:"height"`
	Margin Margin  `json:"margin" toml:"margin"`
}

// OuterWidth returns the width of the full drawing including margins
func (g Geometry) OuterWidth() float64 {
	return g.Width + g.Margin.Left + g.Margin.Right
}

// OuterHeight returns the height of the full drawing including margins
func (g Geometry) OuterHeight() float64 {
	return g.Height + g.Margin.Top + g.Margin.Bottom
}

// ChartMode selects the chart layout
type ChartMode int

const (
	// ModeSimple draws a single price axis with a filled price area
	ModeSimple ChartMode = iota
	// ModeDualAxis adds a right-hand volume axis and volume area
	ModeDualAxis
)

func (m ChartMode) String() string {
	switch m {
	case ModeSimple:
		return "simple"
	case ModeDualAxis:
		return "dual"
	default:
		return fmt.Sprintf("ChartMode(%d)", int(m))
	}
}

// ParseChartMode converts "simple" or "dual" (case-insensitive) into a ChartMode.
// An empty string yields ModeDualAxis.
func ParseChartMode(s string) (ChartMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dual", "dualaxis", "dual-axis":
		return ModeDualAxis, nil
	case "simple":
		return ModeSimple, nil
	default:
		return ModeDualAxis, fmt.Errorf("unknown chart mode %q", s)
	}
}

// FocusState identifies the currently highlighted bar
type FocusState struct {
	Visible  bool `json:"visible"`
	Index    int  `json:"index"`
	HasIndex bool `json:"has_index"`
}

// EODResult is what the data provider returned for one symbol and date range.
// Exactly one of Bars or Warning is meaningful.
type EODResult struct {
	Bars    []DailyBar `json:"bars,omitempty"`
	Warning string     `json:"warning,omitempty"`
}

// ChartView is a rendered chart, or the warning shown in its place
type ChartView struct {
	Symbol  string `json:"symbol"`
	Year    int    `json:"year"`
	Mode    string `json:"mode"`
	Bars    int    `json:"bars"`
	Warning string `json:"warning,omitempty"`
	SVG     string `json:"svg,omitempty"`
}
