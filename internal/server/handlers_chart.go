package server

import (
	"net/http"
	"strings"

	"github.com/bobmcallan/vire-chart/internal/models"
)

// routeCharts dispatches /api/charts/{symbol}/{year}[/svg|/png].
func (s *Server) routeCharts(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := PathParam(r, "/api/charts/", "/")
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/charts/"+symbol), "/")
	if symbol == "" || rest == "" {
		WriteError(w, http.StatusNotFound, "Expected /api/charts/{symbol}/{year}")
		return
	}

	yearPart, format, _ := strings.Cut(rest, "/")
	year, err := parseYear(yearPart)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	mode, err := parseChartQuery(r, s.app.ChartService.DefaultMode())
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	req := chartRequest{Symbol: strings.ToUpper(symbol), Year: year, Mode: mode}

	switch format {
	case "":
		s.handleChartJSON(w, r, req)
	case "svg":
		s.handleChartSVG(w, r, req)
	case "png":
		s.handleChartPNG(w, r, req)
	default:
		WriteError(w, http.StatusNotFound, "Unknown chart format: "+format)
	}
}

// handleChartJSON handles GET /api/charts/{symbol}/{year}. A provider
// warning is a successful response carrying the warning instead of markup.
func (s *Server) handleChartJSON(w http.ResponseWriter, r *http.Request, req chartRequest) {
	view, err := s.app.ChartService.Render(r.Context(), req.Symbol, req.Year, req.Mode)
	if err != nil {
		WriteChartError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, view)
}

// handleChartSVG handles GET /api/charts/{symbol}/{year}/svg.
func (s *Server) handleChartSVG(w http.ResponseWriter, r *http.Request, req chartRequest) {
	view, err := s.app.ChartService.Render(r.Context(), req.Symbol, req.Year, req.Mode)
	if err != nil {
		WriteChartError(w, err)
		return
	}
	if view.Warning != "" {
		WriteErrorWithCode(w, http.StatusUnprocessableEntity, view.Warning, "provider_warning")
		return
	}
	writeImage(w, "image/svg+xml", []byte(view.SVG))
}

// handleChartPNG handles GET /api/charts/{symbol}/{year}/png.
func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request, req chartRequest) {
	png, err := s.app.ChartService.RenderPNG(r.Context(), req.Symbol, req.Year, req.Mode)
	if err != nil {
		WriteChartError(w, err)
		return
	}
	writeImage(w, "image/png", png)
}

func writeImage(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// sessionMode resolves the layout for a websocket session from its query.
func (s *Server) sessionMode(r *http.Request) (models.ChartMode, error) {
	return parseChartQuery(r, s.app.ChartService.DefaultMode())
}
