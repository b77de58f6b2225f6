package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bobmcallan/vire-chart/internal/common"
	"github.com/bobmcallan/vire-chart/internal/models"
)

// ErrorResponse is the standard error format for REST API responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Error codes returned alongside chart retrieval failures.
const (
	codeRetrievalAborted = "retrieval_aborted"
	codeRetrievalFailed  = "retrieval_failed"
	codeInvalidData      = "invalid_data"
)

// statusClientClosedRequest is returned when the client went away before the bars arrived.
const statusClientClosedRequest = 499

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message})
}

// WriteErrorWithCode writes a JSON error response with an error code.
func WriteErrorWithCode(w http.ResponseWriter, statusCode int, message, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// WriteChartError maps a retrieval or render error onto a status code.
func WriteChartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrRetrievalAborted):
		WriteErrorWithCode(w, statusClientClosedRequest, err.Error(), codeRetrievalAborted)
	case errors.Is(err, common.ErrRetrievalFailed):
		WriteErrorWithCode(w, http.StatusBadGateway, err.Error(), codeRetrievalFailed)
	case errors.Is(err, common.ErrUnsortedBars):
		WriteErrorWithCode(w, http.StatusInternalServerError, err.Error(), codeInvalidData)
	default:
		if msg, ok := common.WarningMessage(err); ok {
			WriteErrorWithCode(w, http.StatusUnprocessableEntity, msg, "provider_warning")
			return
		}
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

// RequireMethod validates the HTTP method and returns true if it matches.
// If it doesn't match, it writes a 405 response and returns false.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}

// PathParam extracts a path parameter from the URL path.
// For a pattern like /api/charts/{symbol}/2022, calling PathParam(r, "/api/charts/", "/")
// extracts the {symbol} part.
func PathParam(r *http.Request, prefix, suffix string) string {
	path := r.URL.Path
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	rest := path[len(prefix):]
	if suffix != "" {
		idx := strings.Index(rest, suffix)
		if idx < 0 {
			return rest
		}
		return rest[:idx]
	}
	// No suffix, return up to the next /
	if idx := strings.Index(rest, "/"); idx >= 0 {
		return rest[:idx]
	}
	return rest
}

// chartRequest is a parsed symbol, year and layout.
type chartRequest struct {
	Symbol string
	Year   int
	Mode   models.ChartMode
}

// parseChartQuery reads the layout from the mode query parameter, falling back to def.
func parseChartQuery(r *http.Request, def models.ChartMode) (models.ChartMode, error) {
	raw := r.URL.Query().Get("mode")
	if raw == "" {
		return def, nil
	}
	return models.ParseChartMode(raw)
}

// parseYear accepts four-digit calendar years.
func parseYear(s string) (int, error) {
	year, err := strconv.Atoi(s)
	if err != nil || year < 1000 || year > 9999 {
		return 0, errors.New("year must be a four-digit calendar year")
	}
	return year, nil
}
