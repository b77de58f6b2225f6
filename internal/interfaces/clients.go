// Package interfaces defines service contracts for Vire Chart
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/vire-chart/internal/models"
)

// EODHDClient provides access to the EODHD end-of-day API
type EODHDClient interface {
	// GetEOD retrieves daily bars for a ticker, oldest first.
	// A provider warning is returned in EODResult.Warning with no bars.
	GetEOD(ctx context.Context, ticker string, opts ...EODOption) (*models.EODResult, error)
}

// EODOption configures EOD data requests
type EODOption func(*EODParams)

// EODParams holds EOD query parameters
type EODParams struct {
	From   time.Time
	To     time.Time
	Period string // d=daily, w=weekly, m=monthly
	Order  string // a=ascending, d=descending
}

// WithDateRange sets the date range for EOD query
func WithDateRange(from, to time.Time) EODOption {
	return func(p *EODParams) {
		p.From = from
		p.To = to
	}
}

// WithYear limits the query to one calendar year
func WithYear(year int) EODOption {
	return WithDateRange(
		time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
	)
}
