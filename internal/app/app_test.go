package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/vire-chart/internal/common"
	"github.com/bobmcallan/vire-chart/internal/models"
)

const eodBody = `[
 {"date":"2022-01-03","open":177.83,"high":182.88,"low":177.71,"close":182.01,"adjusted_close":179.95,"volume":104487900},
 {"date":"2022-06-15","open":134.29,"high":137.34,"low":132.16,"close":135.43,"adjusted_close":134.35,"volume":91533000},
 {"date":"2022-12-30","open":128.41,"high":129.95,"low":127.43,"close":129.93,"adjusted_close":129.2,"volume":77034200}
]`

func newEODServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(eodBody))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) *common.Config {
	cfg := common.NewDefaultConfig()
	cfg.Clients.EODHD.BaseURL = baseURL
	cfg.Clients.EODHD.APIKey = "test-key"
	cfg.Storage.Cache.Path = ":memory:"
	return cfg
}

func TestNewAppWithConfig_InitializesComponents(t *testing.T) {
	var calls int32
	srv := newEODServer(t, &calls)

	a, err := NewAppWithConfig(testConfig(srv.URL), common.NewSilentLogger())
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Config)
	assert.NotNil(t, a.Logger)
	assert.NotNil(t, a.EODHDClient)
	assert.NotNil(t, a.Cache)
	assert.NotNil(t, a.ChartService)
	assert.False(t, a.StartupTime.IsZero())

	view, err := a.ChartService.Render(context.Background(), "AAPL.US", 2022, models.ModeDualAxis)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Bars)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestNewApp_FromConfigFile(t *testing.T) {
	var calls int32
	srv := newEODServer(t, &calls)

	path := filepath.Join(t.TempDir(), "vire-chart.toml")
	content := `
[chart]
symbol = "MSFT.US"
year = 2021
mode = "simple"

[storage.cache]
path = ":memory:"

[clients.eodhd]
base_url = "` + srv.URL + `"
api_key = "file-key"

[logging]
level = "error"
outputs = []
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	a, err := NewApp(path)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "MSFT.US", a.Config.Chart.Symbol)
	assert.Equal(t, models.ModeSimple, a.ChartService.DefaultMode())
}

func TestApp_CloseIsIdempotent(t *testing.T) {
	var calls int32
	srv := newEODServer(t, &calls)

	a, err := NewAppWithConfig(testConfig(srv.URL), common.NewSilentLogger())
	require.NoError(t, err)
	a.StartRefreshScheduler()

	a.Close()
	a.Close()
	assert.Nil(t, a.Cache)
}

func TestWarmCache_FillsCache(t *testing.T) {
	var calls int32
	srv := newEODServer(t, &calls)

	a, err := NewAppWithConfig(testConfig(srv.URL), common.NewSilentLogger())
	require.NoError(t, err)
	defer a.Close()

	warmCache(context.Background(), a.ChartService.NewFetcher(), a.Config.Chart, a.Logger)

	bars, ok, err := a.Cache.Get(context.Background(), "AAPL.US", 2022)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, bars, 3)
}

func TestWarmCache_DisabledByEnv(t *testing.T) {
	var calls int32
	srv := newEODServer(t, &calls)
	t.Setenv("VIRE_WARM_CACHE", "off")

	a, err := NewAppWithConfig(testConfig(srv.URL), common.NewSilentLogger())
	require.NoError(t, err)
	defer a.Close()

	warmCache(context.Background(), a.ChartService.NewFetcher(), a.Config.Chart, a.Logger)
	assert.EqualValues(t, 0, atomic.LoadInt32(&calls))
}

func TestRefreshDefaultChart(t *testing.T) {
	var calls int32
	srv := newEODServer(t, &calls)

	a, err := NewAppWithConfig(testConfig(srv.URL), common.NewSilentLogger())
	require.NoError(t, err)
	defer a.Close()
	ctx := context.Background()
	fetcher := a.ChartService.NewFetcher()

	// closed year: nothing to refresh
	closed := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	assert.False(t, refreshDefaultChart(ctx, fetcher, a.Cache, a.Config.Chart, a.Logger, closed))
	assert.EqualValues(t, 0, atomic.LoadInt32(&calls))

	// open year: evicts and re-fetches even when cached
	open := time.Date(2022, 10, 15, 0, 0, 0, 0, time.UTC)
	assert.True(t, refreshDefaultChart(ctx, fetcher, a.Cache, a.Config.Chart, a.Logger, open))
	assert.True(t, refreshDefaultChart(ctx, fetcher, a.Cache, a.Config.Chart, a.Logger, open))
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("VIRE_CONFIG", "")
	assert.Equal(t, "explicit.toml", resolveConfigPath("explicit.toml", "/bin"))

	t.Setenv("VIRE_CONFIG", "/etc/vire-chart.toml")
	assert.Equal(t, "/etc/vire-chart.toml", resolveConfigPath("", "/bin"))

	t.Setenv("VIRE_CONFIG", "")
	assert.Equal(t, "config/vire-chart.toml", resolveConfigPath("", t.TempDir()))
}
