package chart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/vire-chart/internal/common"
	"github.com/bobmcallan/vire-chart/internal/models"
	"github.com/bobmcallan/vire-chart/internal/storage/barcache"
)

func newTestCache(t *testing.T) *barcache.Store {
	t.Helper()
	cache, err := barcache.NewStore(common.NewSilentLogger(), barcache.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestFetch_RequestsCalendarYear(t *testing.T) {
	fake := newFakeEODHD()
	fake.set("AAPL.US", &models.EODResult{Bars: yearBars(2022)})
	f := NewFetcher(fake, nil, 0, common.NewSilentLogger())

	bars, err := f.Fetch(context.Background(), "AAPL.US", 2022)
	require.NoError(t, err)
	assert.Len(t, bars, 3)

	require.Len(t, fake.params, 1)
	assert.True(t, fake.params[0].From.Equal(day(2022, time.January, 1)))
	assert.True(t, fake.params[0].To.Equal(day(2022, time.December, 31)))
	assert.Equal(t, 0, f.Pending())
}

func TestFetch_ReadThroughCache(t *testing.T) {
	fake := newFakeEODHD()
	fake.set("AAPL.US", &models.EODResult{Bars: yearBars(2022)})
	cache := newTestCache(t)
	f := NewFetcher(fake, cache, 0, common.NewSilentLogger())
	ctx := context.Background()

	_, err := f.Fetch(ctx, "AAPL.US", 2022)
	require.NoError(t, err)
	bars, err := f.Fetch(ctx, "AAPL.US", 2022)
	require.NoError(t, err)

	assert.Len(t, bars, 3)
	assert.Equal(t, 1, fake.callCount())

	_, ok, err := cache.Get(ctx, "AAPL.US", 2022)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFetch_WarningIsForwardedAndNotCached(t *testing.T) {
	const msg = "You exceeded your daily API requests limit. Please upgrade."
	fake := newFakeEODHD()
	fake.set("AAPL.US", &models.EODResult{Warning: msg})
	cache := newTestCache(t)
	f := NewFetcher(fake, cache, 0, common.NewSilentLogger())

	bars, err := f.Fetch(context.Background(), "AAPL.US", 2022)
	assert.Nil(t, bars)

	var pw *common.ProviderWarningError
	require.True(t, errors.As(err, &pw))
	assert.Equal(t, msg, pw.Message)

	_, ok, _ := cache.Get(context.Background(), "AAPL.US", 2022)
	assert.False(t, ok)
}

func TestFetch_FailureIsRetrievalFailed(t *testing.T) {
	fake := newFakeEODHD()
	fake.err = errors.New("connection refused")
	f := NewFetcher(fake, nil, 0, common.NewSilentLogger())

	_, err := f.Fetch(context.Background(), "AAPL.US", 2022)
	assert.ErrorIs(t, err, common.ErrRetrievalFailed)
}

func TestFetch_NewRequestCancelsPending(t *testing.T) {
	fake := newFakeEODHD()
	fake.set("AAPL.US", &models.EODResult{Bars: yearBars(2022)})
	fake.block = make(chan struct{})
	fake.started = make(chan string, 2)
	f := NewFetcher(fake, nil, 0, common.NewSilentLogger())
	ctx := context.Background()

	firstErr := make(chan error, 1)
	go func() {
		_, err := f.Fetch(ctx, "AAPL.US", 2022)
		firstErr <- err
	}()
	<-fake.started

	type outcome struct {
		bars []models.DailyBar
		err  error
	}
	second := make(chan outcome, 1)
	go func() {
		bars, err := f.Fetch(ctx, "aapl.us", 2022)
		second <- outcome{bars, err}
	}()

	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, common.ErrRetrievalAborted)
	case <-time.After(5 * time.Second):
		t.Fatal("first retrieval was not cancelled")
	}

	<-fake.started
	close(fake.block)

	got := <-second
	require.NoError(t, got.err)
	assert.Len(t, got.bars, 3)
	assert.Equal(t, 0, f.Pending())
}

func TestFetch_OtherYearNotCancelled(t *testing.T) {
	fake := newFakeEODHD()
	fake.set("AAPL.US", &models.EODResult{Bars: yearBars(2022)})
	fake.block = make(chan struct{})
	fake.started = make(chan string, 2)
	f := NewFetcher(fake, nil, 0, common.NewSilentLogger())
	ctx := context.Background()

	errs := make(chan error, 2)
	for _, year := range []int{2021, 2022} {
		go func(year int) {
			_, err := f.Fetch(ctx, "AAPL.US", year)
			errs <- err
		}(year)
	}
	<-fake.started
	<-fake.started
	assert.Equal(t, 2, f.Pending())

	close(fake.block)
	assert.NoError(t, <-errs)
	assert.NoError(t, <-errs)
}

func TestFetch_CompletedAfterCancelIsDiscarded(t *testing.T) {
	fake := newFakeEODHD()
	fake.set("AAPL.US", &models.EODResult{Bars: yearBars(2022)})
	fake.block = make(chan struct{})
	fake.started = make(chan string, 1)
	fake.ignoreCtx = true
	cache := newTestCache(t)
	f := NewFetcher(fake, cache, 0, common.NewSilentLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.Fetch(ctx, "AAPL.US", 2022)
		done <- err
	}()

	<-fake.started
	cancel()
	close(fake.block)

	assert.ErrorIs(t, <-done, common.ErrRetrievalAborted)
	_, ok, _ := cache.Get(context.Background(), "AAPL.US", 2022)
	assert.False(t, ok)
}

func TestFetch_CacheTTLFromYear(t *testing.T) {
	fake := newFakeEODHD()
	fake.set("AAPL.US", &models.EODResult{Bars: yearBars(2026)})
	cache := &recordingCache{}
	f := NewFetcher(fake, cache, 0, common.NewSilentLogger())
	f.now = func() time.Time { return day(2026, time.October, 15) }

	_, err := f.Fetch(context.Background(), "AAPL.US", 2026)
	require.NoError(t, err)
	_, err = f.Fetch(context.Background(), "AAPL.US", 2022)
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{common.FreshnessCurrentYear, common.FreshnessPastYear}, cache.ttls)

	fixed := NewFetcher(fake, cache, 2*time.Hour, common.NewSilentLogger())
	_, err = fixed.Fetch(context.Background(), "AAPL.US", 2021)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cache.ttls[2])
}

// recordingCache never hits and remembers every TTL it was given
type recordingCache struct {
	ttls []time.Duration
}

func (c *recordingCache) Get(context.Context, string, int) ([]models.DailyBar, bool, error) {
	return nil, false, nil
}

func (c *recordingCache) Put(_ context.Context, _ string, _ int, _ []models.DailyBar, ttl time.Duration) error {
	c.ttls = append(c.ttls, ttl)
	return nil
}

func (c *recordingCache) Delete(context.Context, string, int) error { return nil }

func (c *recordingCache) Close() error { return nil }
