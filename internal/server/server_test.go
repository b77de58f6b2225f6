package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/vire-chart/internal/app"
	"github.com/bobmcallan/vire-chart/internal/common"
)

// eodFixture returns every weekday of year as EODHD JSON, closes drifting
// between 120 and 180.
func eodFixture(year int) []byte {
	type eodBar struct {
		Date     string  `json:"date"`
		Open     float64 `json:"open"`
		High     float64 `json:"high"`
		Low      float64 `json:"low"`
		Close    float64 `json:"close"`
		AdjClose float64 `json:"adjusted_close"`
		Volume   int64   `json:"volume"`
	}

	var bars []eodBar
	for d := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC); d.Year() == year; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		c := 150 + float64(d.YearDay()%60) - 30
		bars = append(bars, eodBar{
			Date:     d.Format("2006-01-02"),
			Open:     c - 1,
			High:     c + 2,
			Low:      c - 2,
			Close:    c,
			AdjClose: c,
			Volume:   int64(80_000_000 + d.YearDay()*100_000),
		})
	}
	data, _ := json.Marshal(bars)
	return data
}

// newEODHDServer fakes the provider: WARN.US answers with a warning,
// FAIL.US with a 500, ONE.US with a single bar, anything else with a
// full year.
func newEODHDServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ticker := strings.TrimPrefix(r.URL.Path, "/eod/")
		year := 2022
		if from := r.URL.Query().Get("from"); len(from) >= 4 {
			fmt.Sscanf(from[:4], "%d", &year)
		}

		w.Header().Set("Content-Type", "application/json")
		switch ticker {
		case "WARN.US":
			w.Write([]byte(`[{"warning":"Data is limited by one year as you have free subscription"}]`))
		case "FAIL.US":
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`upstream unavailable`))
		case "ONE.US":
			w.Write([]byte(`[{"date":"2022-01-03","open":1,"high":1,"low":1,"close":1,"adjusted_close":1,"volume":1}]`))
		default:
			w.Write(eodFixture(year))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	eod := newEODHDServer(t)

	cfg := common.NewDefaultConfig()
	cfg.Clients.EODHD.BaseURL = eod.URL
	cfg.Clients.EODHD.APIKey = "test-key"
	cfg.Clients.EODHD.RateLimit = 1000
	cfg.Storage.Cache.Path = ":memory:"

	a, err := app.NewAppWithConfig(cfg, common.NewSilentLogger())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

// newTestServer returns the server under test and a live listener for it.
func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(newTestApp(t))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}
