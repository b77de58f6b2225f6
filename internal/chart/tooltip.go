package chart

import (
	"github.com/bobmcallan/vire-chart/internal/models"
)

const (
	tooltipID      = "side-tooltip"
	tooltipOffsetX = 50 // from the right edge of the plot
	tooltipStartY  = 20
	tooltipStepY   = 25
	tooltipColor   = "steelblue"
)

// TooltipLines returns the seven readout lines for a bar, always in the order
// Date, Open, High, Low, Close, Adjusted Close, Volume.
func TooltipLines(bar models.DailyBar) []string {
	return []string{
		"Date: " + formatTooltipDate(bar.Date),
		"Open: " + FormatNumber(bar.Open),
		"High: " + FormatNumber(bar.High),
		"Low: " + FormatNumber(bar.Low),
		"Close: " + FormatNumber(bar.Close),
		"Adjusted Close: " + FormatNumber(bar.AdjClose),
		"Volume: " + FormatInt(bar.Volume),
	}
}

// tooltipAnchorX is where the readout sits, right of the plotted area
func tooltipAnchorX(geo models.Geometry) float64 {
	return geo.Width + tooltipOffsetX
}

// layoutTooltip appends a fresh tooltip block to parent. Every line is placed
// at anchorX, one fixed step below the previous one.
func layoutTooltip(parent *Element, anchorX float64, lines []string) *Element {
	block := parent.AppendNew("text").
		Set("id", tooltipID).
		SetNum("x", anchorX)

	for i, line := range lines {
		block.AppendNew("tspan").
			Set("font-weight", "bold").
			Set("fill", tooltipColor).
			SetNum("x", anchorX).
			SetNum("y", float64(tooltipStartY+i*tooltipStepY)).
			SetText(line)
	}
	return block
}

// removeTooltip detaches any tooltip block under parent
func removeTooltip(parent *Element) {
	for _, t := range parent.FindAll("#" + tooltipID) {
		t.Remove()
	}
}
