package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/vire-chart/internal/models"
)

// BarCache stores retrieved bars keyed by symbol and calendar year
type BarCache interface {
	// Get returns cached bars, or ok=false when absent or expired
	Get(ctx context.Context, symbol string, year int) (bars []models.DailyBar, ok bool, err error)

	// Put stores bars for the given TTL; ttl <= 0 stores without expiry
	Put(ctx context.Context, symbol string, year int, bars []models.DailyBar, ttl time.Duration) error

	// Delete removes a cached entry
	Delete(ctx context.Context, symbol string, year int) error

	// Close releases the underlying store
	Close() error
}
