package chart

import (
	"fmt"
	"math"
	"time"

	"github.com/samber/lo"

	"github.com/bobmcallan/vire-chart/internal/common"
	"github.com/bobmcallan/vire-chart/internal/models"
)

// Domain padding applied to the upper bound of the value scales. The price
// line never touches the top edge and the volume area stays below it.
const (
	PricePadding  = 1.2
	VolumePadding = 2.0
)

// LinearScale maps a continuous numeric domain onto a pixel range
type LinearScale struct {
	D0, D1 float64
	R0, R1 float64
}

// Scale maps a domain value to the range. A zero-width domain maps to the
// middle of the range.
func (s LinearScale) Scale(v float64) float64 {
	if s.D1 == s.D0 {
		return (s.R0 + s.R1) / 2
	}
	return s.R0 + (v-s.D0)/(s.D1-s.D0)*(s.R1-s.R0)
}

// Invert maps a range value back into the domain
func (s LinearScale) Invert(r float64) float64 {
	if s.R1 == s.R0 {
		return (s.D0 + s.D1) / 2
	}
	return s.D0 + (r-s.R0)/(s.R1-s.R0)*(s.D1-s.D0)
}

// Ticks returns roughly count human-friendly values spanning the domain
func (s LinearScale) Ticks(count int) []float64 {
	return ticks(s.D0, s.D1, count)
}

// TickFormat returns a formatter whose precision suits the tick step
func (s LinearScale) TickFormat(count int) func(float64) string {
	step := math.Abs(tickStep(s.D0, s.D1, count))
	precision := 0
	if step > 0 && !math.IsInf(step, 0) {
		precision = max(0, -int(math.Floor(math.Log10(step))))
	}
	return func(v float64) string {
		return formatFixed(v, precision)
	}
}

// TimeScale maps a date domain onto a pixel range
type TimeScale struct {
	D0, D1 time.Time
	R0, R1 float64
}

func (s TimeScale) linear() LinearScale {
	return LinearScale{
		D0: float64(s.D0.UnixMilli()),
		D1: float64(s.D1.UnixMilli()),
		R0: s.R0,
		R1: s.R1,
	}
}

// Scale maps a date to the range
func (s TimeScale) Scale(t time.Time) float64 {
	return s.linear().Scale(float64(t.UnixMilli()))
}

// Invert maps a pixel position back to a date, at millisecond resolution
func (s TimeScale) Invert(x float64) time.Time {
	ms := s.linear().Invert(x)
	return time.UnixMilli(int64(math.Round(ms))).UTC()
}

// Ticks returns calendar-aligned dates spanning the domain
func (s TimeScale) Ticks(count int) []time.Time {
	return timeTicks(s.D0, s.D1, count)
}

// Scales holds every coordinate mapping of one chart
type Scales struct {
	X         TimeScale
	Price     LinearScale
	Volume    LinearScale
	HasVolume bool
}

// BuildScales derives the scales for bars drawn into geo. The volume scale is
// only built in dual-axis mode.
func BuildScales(bars []models.DailyBar, geo models.Geometry, mode models.ChartMode) (Scales, error) {
	if len(bars) < 2 {
		return Scales{}, fmt.Errorf("build scales from %d bars: %w", len(bars), common.ErrDegenerateDataset)
	}

	dates := lo.Map(bars, func(b models.DailyBar, _ int) time.Time { return b.Date })
	minDate := lo.MinBy(dates, func(a, b time.Time) bool { return a.Before(b) })
	maxDate := lo.MaxBy(dates, func(a, b time.Time) bool { return a.After(b) })

	maxClose := lo.Max(lo.Map(bars, func(b models.DailyBar, _ int) float64 { return b.Close }))

	scales := Scales{
		X: TimeScale{D0: minDate, D1: maxDate, R0: 0, R1: geo.Width},
		Price: LinearScale{
			D0: 0, D1: maxClose * PricePadding,
			R0: geo.Height, R1: 0,
		},
	}

	if mode == models.ModeDualAxis {
		maxVolume := lo.Max(lo.Map(bars, func(b models.DailyBar, _ int) int64 { return b.Volume }))
		scales.Volume = LinearScale{
			D0: 0, D1: float64(maxVolume) * VolumePadding,
			R0: geo.Height, R1: 0,
		}
		scales.HasVolume = true
	}

	return scales, nil
}

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// tickSpec picks a 1/2/5×10^k step so that about count ticks cover
// [start, stop]. A negative inc means the step is 1/-inc.
func tickSpec(start, stop float64, count float64) (i1, i2, inc float64) {
	step := (stop - start) / math.Max(0, count)
	power := math.Floor(math.Log10(step))
	errRatio := step / math.Pow(10, power)
	factor := 1.0
	switch {
	case errRatio >= e10:
		factor = 10
	case errRatio >= e5:
		factor = 5
	case errRatio >= e2:
		factor = 2
	}
	if power < 0 {
		inc = math.Pow(10, -power) / factor
		i1 = math.Round(start * inc)
		i2 = math.Round(stop * inc)
		if i1/inc < start {
			i1++
		}
		if i2/inc > stop {
			i2--
		}
		inc = -inc
	} else {
		inc = math.Pow(10, power) * factor
		i1 = math.Round(start / inc)
		i2 = math.Round(stop / inc)
		if i1*inc < start {
			i1++
		}
		if i2*inc > stop {
			i2--
		}
	}
	if i2 < i1 && 0.5 <= count && count < 2 {
		return tickSpec(start, stop, count*2)
	}
	return i1, i2, inc
}

func ticks(start, stop float64, count int) []float64 {
	if count <= 0 || math.IsNaN(start) || math.IsNaN(stop) {
		return nil
	}
	if start == stop {
		return []float64{start}
	}
	reverse := stop < start
	if reverse {
		start, stop = stop, start
	}
	i1, i2, inc := tickSpec(start, stop, float64(count))
	if i2 < i1 || math.IsInf(inc, 0) || inc == 0 {
		return nil
	}
	n := int(i2-i1) + 1
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if inc < 0 {
			out[i] = (i1 + float64(i)) / -inc
		} else {
			out[i] = (i1 + float64(i)) * inc
		}
	}
	if reverse {
		lo.Reverse(out)
	}
	return out
}

// tickStep returns the signed step size ticks would use
func tickStep(start, stop float64, count int) float64 {
	if count <= 0 || start == stop {
		return 0
	}
	reverse := stop < start
	if reverse {
		start, stop = stop, start
	}
	_, _, inc := tickSpec(start, stop, float64(count))
	step := inc
	if inc < 0 {
		step = 1 / -inc
	}
	if reverse {
		return -step
	}
	return step
}

type timeInterval int

const (
	intervalDay timeInterval = iota
	intervalTwoDays
	intervalWeek
	intervalMonth
	intervalQuarter
	intervalYear
)

const day = 24 * time.Hour

// approximate lengths used only to pick an interval
var timeIntervalDurations = []time.Duration{
	day,
	2 * day,
	7 * day,
	30 * day,
	90 * day,
	365 * day,
}

// pickTimeInterval chooses the calendar interval whose length is closest
// (by ratio) to span/count. Past one year it returns a multi-year step.
func pickTimeInterval(span time.Duration, count int) (timeInterval, int) {
	target := span / time.Duration(max(count, 1))
	i := 0
	for i < len(timeIntervalDurations) && timeIntervalDurations[i] <= target {
		i++
	}
	switch {
	case i == len(timeIntervalDurations):
		years := tickStep(0, span.Hours()/24/365, count)
		return intervalYear, max(1, int(math.Round(years)))
	case i == 0:
		return intervalDay, 1
	}
	lower, upper := timeIntervalDurations[i-1], timeIntervalDurations[i]
	if float64(target)/float64(lower) < float64(upper)/float64(target) {
		return timeInterval(i - 1), 1
	}
	return timeInterval(i), 1
}

// timeTicks returns interval boundaries within [start, stop] (UTC)
func timeTicks(start, stop time.Time, count int) []time.Time {
	if count <= 0 || stop.Before(start) {
		return nil
	}
	interval, step := pickTimeInterval(stop.Sub(start), count)

	start, stop = start.UTC(), stop.UTC()
	cur := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	if cur.Before(start) {
		cur = cur.AddDate(0, 0, 1)
	}

	var out []time.Time
	for ; !cur.After(stop); cur = cur.AddDate(0, 0, 1) {
		if onBoundary(cur, interval, step) {
			out = append(out, cur)
		}
	}
	return out
}

func onBoundary(t time.Time, interval timeInterval, step int) bool {
	switch interval {
	case intervalDay:
		return true
	case intervalTwoDays:
		return (t.Day()-1)%2 == 0
	case intervalWeek:
		return t.Weekday() == time.Sunday
	case intervalMonth:
		return t.Day() == 1
	case intervalQuarter:
		return t.Day() == 1 && (int(t.Month())-1)%3 == 0
	case intervalYear:
		return t.Day() == 1 && t.Month() == time.January && t.Year()%step == 0
	}
	return false
}
