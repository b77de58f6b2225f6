package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/vire-chart/internal/models"
)

func getChart(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestChartJSON_DualAxis(t *testing.T) {
	s, _ := newTestServer(t)

	rr := getChart(t, s, "/api/charts/AAPL.US/2022")
	require.Equal(t, http.StatusOK, rr.Code)

	var view models.ChartView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, "AAPL.US", view.Symbol)
	assert.Equal(t, 2022, view.Year)
	assert.Equal(t, "dual", view.Mode)
	assert.Equal(t, 260, view.Bars)
	assert.Empty(t, view.Warning)
	assert.True(t, strings.HasPrefix(view.SVG, "<svg"))
	assert.Contains(t, view.SVG, `class="volume-area"`)
	assert.Contains(t, view.SVG, `class="overlay"`)
}

func TestChartJSON_SimpleMode(t *testing.T) {
	s, _ := newTestServer(t)

	rr := getChart(t, s, "/api/charts/AAPL.US/2022?mode=simple")
	require.Equal(t, http.StatusOK, rr.Code)

	var view models.ChartView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, "simple", view.Mode)
	assert.Contains(t, view.SVG, `class="price-area"`)
	assert.NotContains(t, view.SVG, `class="volume-area"`)
}

func TestChartJSON_ProviderWarning(t *testing.T) {
	s, _ := newTestServer(t)

	rr := getChart(t, s, "/api/charts/WARN.US/2022")
	require.Equal(t, http.StatusOK, rr.Code)

	var view models.ChartView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, "Data is limited by one year as you have free subscription", view.Warning)
	assert.Empty(t, view.SVG)
	assert.Zero(t, view.Bars)
}

func TestChartJSON_DegenerateDataset(t *testing.T) {
	s, _ := newTestServer(t)

	rr := getChart(t, s, "/api/charts/ONE.US/2022")
	require.Equal(t, http.StatusOK, rr.Code)

	var view models.ChartView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.NotEmpty(t, view.Warning)
	assert.Empty(t, view.SVG)
}

func TestChartJSON_RetrievalFailed(t *testing.T) {
	s, _ := newTestServer(t)

	rr := getChart(t, s, "/api/charts/FAIL.US/2022")
	require.Equal(t, http.StatusBadGateway, rr.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, codeRetrievalFailed, body.Code)
}

func TestChartRoutes_BadRequests(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		path string
		want int
	}{
		{"/api/charts/AAPL.US/twenty", http.StatusBadRequest},
		{"/api/charts/AAPL.US/22", http.StatusBadRequest},
		{"/api/charts/AAPL.US/2022?mode=candles", http.StatusBadRequest},
		{"/api/charts/AAPL.US", http.StatusNotFound},
		{"/api/charts/AAPL.US/2022/gif", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, getChart(t, s, tt.path).Code)
		})
	}
}

func TestChartSVG(t *testing.T) {
	s, _ := newTestServer(t)

	rr := getChart(t, s, "/api/charts/AAPL.US/2022/svg")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/svg+xml", rr.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rr.Body.String(), "<svg"))
	assert.NotContains(t, rr.Body.String(), `id="side-tooltip"`)
}

func TestChartSVG_WarningIsUnprocessable(t *testing.T) {
	s, _ := newTestServer(t)

	rr := getChart(t, s, "/api/charts/WARN.US/2022/svg")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestChartPNG(t *testing.T) {
	s, _ := newTestServer(t)

	rr := getChart(t, s, "/api/charts/AAPL.US/2022/png")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rr.Body.String(), "\x89PNG"))
}

func TestChartPNG_Errors(t *testing.T) {
	s, _ := newTestServer(t)

	assert.Equal(t, http.StatusUnprocessableEntity, getChart(t, s, "/api/charts/WARN.US/2022/png").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, getChart(t, s, "/api/charts/ONE.US/2022/png").Code)
	assert.Equal(t, http.StatusBadGateway, getChart(t, s, "/api/charts/FAIL.US/2022/png").Code)
}
