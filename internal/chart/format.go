package chart

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	axisDateLayout    = "Jan 2006"
	tooltipDateLayout = "Jan 02, 2006"
)

// FormatNumber renders v with thousands grouping and at most three fraction
// digits, e.g. 1234.5 -> "1,234.5" and 145 -> "145".
func FormatNumber(v float64) string {
	r := math.Round(v*1000) / 1000
	if r == 0 {
		r = 0
	}
	return humanize.Commaf(r)
}

// FormatInt renders v with thousands grouping
func FormatInt(v int64) string {
	return humanize.Comma(v)
}

// VolumeTickText abbreviates a volume axis value: millions get an "M"
// suffix, thousands a "K" suffix, each with at most one decimal.
func VolumeTickText(v float64) string {
	switch {
	case v >= 1_000_000:
		return oneDecimal(v/1_000_000) + "M"
	case v >= 1_000:
		return oneDecimal(v/1_000) + "K"
	default:
		return FormatNumber(v)
	}
}

func oneDecimal(v float64) string {
	return humanize.Commaf(math.Round(v*10) / 10)
}

// formatFixed renders v with exactly precision fraction digits and grouping
func formatFixed(v float64, precision int) string {
	s := strconv.FormatFloat(v, 'f', precision, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return sign + s
	}
	out := sign + humanize.Comma(n)
	if hasFrac {
		out += "." + frac
	}
	if strings.Trim(out, "-0.,") == "" {
		return strings.TrimPrefix(out, "-")
	}
	return out
}

// formatPlain renders v in its shortest exact decimal form
func formatPlain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatAxisDate(t time.Time) string {
	return t.Format(axisDateLayout)
}

func formatTooltipDate(t time.Time) string {
	return t.Format(tooltipDateLayout)
}
