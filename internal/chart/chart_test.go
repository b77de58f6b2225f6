package chart

import (
	"time"

	"github.com/bobmcallan/vire-chart/internal/models"
)

func day2022(month time.Month, d int) time.Time {
	return time.Date(2022, month, d, 0, 0, 0, 0, time.UTC)
}

// scenarioBars is the three-bar dataset used across the chart tests
func scenarioBars() []models.DailyBar {
	return []models.DailyBar{
		{Date: day2022(time.January, 3), Open: 177.83, High: 182.88, Low: 177.71, Close: 170, AdjClose: 168.1, Volume: 100_000_000},
		{Date: day2022(time.June, 15), Open: 134.29, High: 137.34, Low: 132.16, Close: 145, AdjClose: 143.3, Volume: 120_000_000},
		{Date: day2022(time.December, 30), Open: 128.41, High: 129.95, Low: 127.43, Close: 130, AdjClose: 129.2, Volume: 90_000_000},
	}
}

// tradingYear returns one bar per weekday of 2022 with a gently rising close
func tradingYear() []models.DailyBar {
	var bars []models.DailyBar
	for d := day2022(time.January, 3); d.Year() == 2022; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		n := float64(len(bars))
		bars = append(bars, models.DailyBar{
			Date:     d,
			Open:     100 + n*0.1,
			High:     101 + n*0.1,
			Low:      99 + n*0.1,
			Close:    100.5 + n*0.1,
			AdjClose: 100.4 + n*0.1,
			Volume:   int64(50_000_000 + len(bars)*10_000),
		})
	}
	return bars
}

func testGeometry() models.Geometry {
	return models.Geometry{
		Width:  600,
		Height: 300,
		Margin: models.Margin{Top: 20, Right: 250, Bottom: 20, Left: 40},
	}
}

func testConfig(mode models.ChartMode) Config {
	return Config{Symbol: "AAPL.US", Mode: mode, Geometry: testGeometry()}
}
