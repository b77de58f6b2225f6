package chart

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/vire-chart/internal/common"
	"github.com/bobmcallan/vire-chart/internal/interfaces"
	"github.com/bobmcallan/vire-chart/internal/models"
)

// Fetcher retrieves one calendar year of daily bars. At most one retrieval
// per (symbol, year) is in flight: starting another cancels the pending one,
// whose caller then gets ErrRetrievalAborted.
type Fetcher struct {
	eodhd  interfaces.EODHDClient
	cache  interfaces.BarCache
	ttl    time.Duration
	logger *common.Logger
	now    func() time.Time

	mu       sync.Mutex
	seq      uint64
	inflight map[string]inflightFetch
}

type inflightFetch struct {
	id     uint64
	cancel context.CancelFunc
}

// NewFetcher creates a fetcher. cache may be nil. A ttl of zero derives the
// cache lifetime from the requested year.
func NewFetcher(eodhd interfaces.EODHDClient, cache interfaces.BarCache, ttl time.Duration, logger *common.Logger) *Fetcher {
	return &Fetcher{
		eodhd:    eodhd,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		inflight: make(map[string]inflightFetch),
	}
}

func fetchKey(symbol string, year int) string {
	return strings.ToUpper(symbol) + "/" + strconv.Itoa(year)
}

// begin registers a retrieval for key, cancelling any pending one
func (f *Fetcher) begin(ctx context.Context, key string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)

	f.mu.Lock()
	if prev, ok := f.inflight[key]; ok {
		prev.cancel()
		f.logger.Debug().Str("key", key).Msg("Superseding pending retrieval")
	}
	f.seq++
	id := f.seq
	f.inflight[key] = inflightFetch{id: id, cancel: cancel}
	f.mu.Unlock()

	return ctx, func() {
		f.mu.Lock()
		if cur, ok := f.inflight[key]; ok && cur.id == id {
			delete(f.inflight, key)
		}
		f.mu.Unlock()
		cancel()
	}
}

// Pending returns how many retrievals are in flight
func (f *Fetcher) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inflight)
}

// Fetch returns the bars for symbol and year, oldest first. A provider
// warning comes back as *common.ProviderWarningError. The result of a
// retrieval cancelled before it completed is never returned.
func (f *Fetcher) Fetch(ctx context.Context, symbol string, year int) ([]models.DailyBar, error) {
	key := fetchKey(symbol, year)
	ctx, done := f.begin(ctx, key)
	defer done()

	if f.cache != nil {
		bars, ok, err := f.cache.Get(ctx, symbol, year)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, fmt.Errorf("%s: %w", key, common.ErrRetrievalAborted)
		case err != nil:
			f.logger.Warn().Err(err).Str("key", key).Msg("Bar cache read failed")
		case ok:
			f.logger.Debug().Str("key", key).Int("bars", len(bars)).Msg("Bar cache hit")
			return bars, nil
		}
	}

	result, err := f.eodhd.GetEOD(ctx, symbol, interfaces.WithYear(year))
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%s: %w", key, common.ErrRetrievalAborted)
	}
	if err != nil {
		if errors.Is(err, common.ErrRetrievalAborted) {
			return nil, err
		}
		f.logger.Error().Err(err).Str("symbol", symbol).Int("year", year).Msg("Bar retrieval failed")
		if !errors.Is(err, common.ErrRetrievalFailed) {
			err = fmt.Errorf("%w: %v", common.ErrRetrievalFailed, err)
		}
		return nil, err
	}

	if result.Warning != "" {
		f.logger.Warn().Str("symbol", symbol).Int("year", year).Str("warning", result.Warning).Msg("Data provider returned a warning")
		return nil, &common.ProviderWarningError{Message: result.Warning}
	}

	if f.cache != nil && len(result.Bars) > 0 {
		ttl := f.ttl
		if ttl <= 0 {
			ttl = common.FreshnessForYear(year, f.now())
		}
		if err := f.cache.Put(ctx, symbol, year, result.Bars, ttl); err != nil {
			f.logger.Warn().Err(err).Str("key", key).Msg("Bar cache write failed")
		}
	}

	f.logger.Debug().Str("symbol", symbol).Int("year", year).Int("bars", len(result.Bars)).Msg("Bars retrieved")
	return result.Bars, nil
}
