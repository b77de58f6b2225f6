package chart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVolumeTickText(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{500, "500"},
		{999, "999"},
		{1000, "1K"},
		{1500, "1.5K"},
		{20_000, "20K"},
		{999_000, "999K"},
		{1_000_000, "1M"},
		{2_500_000, "2.5M"},
		{240_000_000, "240M"},
		{1_250_000_000, "1,250M"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VolumeTickText(tt.in), "VolumeTickText(%v)", tt.in)
	}
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "145", FormatNumber(145))
	assert.Equal(t, "1,234.5", FormatNumber(1234.5))
	assert.Equal(t, "177.83", FormatNumber(177.83))
	assert.Equal(t, "0.333", FormatNumber(1.0/3))
	assert.Equal(t, "0", FormatNumber(-0.0001))
}

func TestFormatInt(t *testing.T) {
	assert.Equal(t, "0", FormatInt(0))
	assert.Equal(t, "120,000,000", FormatInt(120_000_000))
}

func TestFormatFixed(t *testing.T) {
	assert.Equal(t, "200", formatFixed(200, 0))
	assert.Equal(t, "1,200", formatFixed(1200, 0))
	assert.Equal(t, "0.20", formatFixed(0.2, 2))
	assert.Equal(t, "-1,500.5", formatFixed(-1500.5, 1))
	assert.Equal(t, "0", formatFixed(-0.0, 0))
}

func TestDateFormats(t *testing.T) {
	d := time.Date(2022, time.June, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Jun 2022", formatAxisDate(d))
	assert.Equal(t, "Jun 05, 2022", formatTooltipDate(d))
}
