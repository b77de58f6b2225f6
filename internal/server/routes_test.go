package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 0, body["sessions"])
}

func TestHandleVersion(t *testing.T) {
	s, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/version", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Contains(t, body, "version")
	assert.Contains(t, body, "build")
	assert.Contains(t, body, "commit")
}

func TestHandleHealth_MethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/health", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "GET, HEAD", rr.Header().Get("Allow"))
}

func TestHandleShutdown_ForbiddenInProduction(t *testing.T) {
	s, _ := newTestServer(t)
	s.app.Config.Environment = "production"

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/shutdown", nil))

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestHandleShutdown_SignalsChannel(t *testing.T) {
	s, _ := newTestServer(t)
	ch := make(chan struct{}, 1)
	s.SetShutdownChannel(ch)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/shutdown", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	<-ch
}

func TestCacheListAndEvict(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/charts/aapl.us/2022", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/cache", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var list struct {
		Count   int `json:"count"`
		Entries []struct {
			Symbol string `json:"symbol"`
			Year   int    `json:"year"`
			Bars   int    `json:"bars"`
			Age    string `json:"age"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "AAPL.US", list.Entries[0].Symbol)
	assert.Equal(t, 2022, list.Entries[0].Year)
	assert.Equal(t, 260, list.Entries[0].Bars)
	assert.NotEmpty(t, list.Entries[0].Age)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/cache/AAPL.US/2022", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/cache", nil))
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Equal(t, 0, list.Count)
}

func TestCacheEvict_BadPath(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{"/api/cache/AAPL.US", "/api/cache/AAPL.US/22"} {
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, path, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, path)
	}
}
