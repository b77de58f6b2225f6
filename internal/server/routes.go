package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"

	"github.com/bobmcallan/vire-chart/internal/common"
	"github.com/bobmcallan/vire-chart/internal/storage/barcache"
)

// registerRoutes sets up all routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Bar cache
	mux.HandleFunc("/api/cache/", s.handleCacheEvict)
	mux.HandleFunc("/api/cache", s.handleCacheList)

	// Charts
	mux.HandleFunc("/api/charts/ws", s.handleChartSession)
	mux.HandleFunc("/api/charts/", s.routeCharts)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"uptime":   time.Since(s.app.StartupTime).Round(time.Second).String(),
		"sessions": s.sessions.count(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}

// cacheEntryResponse is a cached (symbol, year) as listed by GET /api/cache.
type cacheEntryResponse struct {
	barcache.Entry
	Age string `json:"age"`
}

// handleCacheList handles GET /api/cache, oldest entry first.
func (s *Server) handleCacheList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if s.app.Cache == nil {
		WriteError(w, http.StatusServiceUnavailable, "Bar cache not available")
		return
	}

	entries, err := s.app.Cache.Entries(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to list cache: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": lo.Map(entries, func(e barcache.Entry, _ int) cacheEntryResponse {
			return cacheEntryResponse{Entry: e, Age: humanize.Time(e.FetchedAt)}
		}),
		"count": len(entries),
	})
}

// handleCacheEvict handles DELETE /api/cache/{symbol}/{year}.
func (s *Server) handleCacheEvict(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}
	if s.app.Cache == nil {
		WriteError(w, http.StatusServiceUnavailable, "Bar cache not available")
		return
	}

	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/cache/"), "/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		WriteError(w, http.StatusBadRequest, "Expected /api/cache/{symbol}/{year}")
		return
	}
	year, err := parseYear(parts[1])
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.app.Cache.Delete(r.Context(), parts[0], year); err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to evict: "+err.Error())
		return
	}
	s.logger.Info().Str("symbol", parts[0]).Int("year", year).Msg("Bar cache entry evicted")
	w.WriteHeader(http.StatusNoContent)
}
