package chart

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/vire-chart/internal/common"
	"github.com/bobmcallan/vire-chart/internal/interfaces"
	"github.com/bobmcallan/vire-chart/internal/models"
)

// fakeEODHD is a scripted EODHD client. With block set, calls wait until
// block is closed or, unless ignoreCtx is set, until ctx is cancelled.
type fakeEODHD struct {
	mu        sync.Mutex
	calls     int
	params    []interfaces.EODParams
	results   map[string]*models.EODResult
	err       error
	block     chan struct{}
	started   chan string
	ignoreCtx bool
}

func newFakeEODHD() *fakeEODHD {
	return &fakeEODHD{results: make(map[string]*models.EODResult)}
}

func (f *fakeEODHD) set(ticker string, result *models.EODResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[ticker] = result
}

func (f *fakeEODHD) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeEODHD) GetEOD(ctx context.Context, ticker string, opts ...interfaces.EODOption) (*models.EODResult, error) {
	var params interfaces.EODParams
	for _, opt := range opts {
		opt(&params)
	}

	f.mu.Lock()
	f.calls++
	f.params = append(f.params, params)
	block, started, ignoreCtx := f.block, f.started, f.ignoreCtx
	result, err := f.results[strings.ToUpper(ticker)], f.err
	f.mu.Unlock()

	if started != nil {
		started <- ticker
	}
	if block != nil {
		if ignoreCtx {
			<-block
		} else {
			select {
			case <-block:
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", common.ErrRetrievalAborted, ctx.Err())
			}
		}
	}

	if err != nil {
		return nil, err
	}
	if result == nil {
		return &models.EODResult{}, nil
	}
	return result, nil
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func yearBars(year int) []models.DailyBar {
	return []models.DailyBar{
		{Date: day(year, time.January, 3), Open: 177.83, High: 182.88, Low: 177.71, Close: 170, AdjClose: 168.1, Volume: 100_000_000},
		{Date: day(year, time.June, 15), Open: 134.29, High: 137.34, Low: 132.16, Close: 145, AdjClose: 143.3, Volume: 120_000_000},
		{Date: day(year, time.December, 30), Open: 128.41, High: 129.95, Low: 127.43, Close: 130, AdjClose: 129.2, Volume: 90_000_000},
	}
}

func testGeometry() models.Geometry {
	return models.Geometry{Width: 600, Height: 300, Margin: models.Margin{Top: 20, Right: 250, Bottom: 20, Left: 40}}
}
