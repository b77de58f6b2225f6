// Package eodhd provides a client for the EODHD end-of-day API
package eodhd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/vire-chart/internal/common"
	"github.com/bobmcallan/vire-chart/internal/interfaces"
	"github.com/bobmcallan/vire-chart/internal/models"
)

// flexFloat64 handles JSON values that may be either a number or a string.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" || s == "N/A" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	if string(data) == "null" {
		*f = 0
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

const (
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Client implements the EODHDClient interface
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a non-success response from the API
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Unwrap lets callers match API errors with common.ErrRetrievalFailed
func (e *APIError) Unwrap() error {
	return common.ErrRetrievalFailed
}

// get performs a rate-limited GET request and returns the raw body
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, c.contextError(ctx, fmt.Errorf("rate limit wait: %w", err))
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("EODHD API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.contextError(ctx, fmt.Errorf("failed to execute request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.contextError(ctx, fmt.Errorf("failed to read response: %w", err))
	}
	return body, nil
}

// contextError classifies a transport error: cancellation becomes
// ErrRetrievalAborted, anything else ErrRetrievalFailed.
func (c *Client) contextError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%w: %w", common.ErrRetrievalAborted, err)
	}
	return fmt.Errorf("%w: %w", common.ErrRetrievalFailed, err)
}

// GetEOD retrieves end-of-day bars, sorted oldest first. When the API
// substitutes a single {"warning": "..."} record for the data, the result
// carries the warning and no bars.
func (c *Client) GetEOD(ctx context.Context, ticker string, opts ...interfaces.EODOption) (*models.EODResult, error) {
	params := &interfaces.EODParams{
		Period: "d",
		Order:  "a",
	}

	for _, opt := range opts {
		opt(params)
	}

	urlParams := url.Values{}
	urlParams.Set("period", params.Period)
	urlParams.Set("order", params.Order)

	if !params.From.IsZero() {
		urlParams.Set("from", params.From.Format("2006-01-02"))
	}
	if !params.To.IsZero() {
		urlParams.Set("to", params.To.Format("2006-01-02"))
	}

	path := fmt.Sprintf("/eod/%s", url.PathEscape(ticker))

	body, err := c.get(ctx, path, urlParams)
	if err != nil {
		return nil, err
	}

	if warning, ok := parseWarning(body); ok {
		c.logger.Warn().Str("ticker", ticker).Str("warning", warning).Msg("EODHD returned a warning instead of data")
		return &models.EODResult{Warning: warning}, nil
	}

	var bars []eodBarResponse
	if err := json.Unmarshal(body, &bars); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %w", common.ErrRetrievalFailed, err)
	}

	result := &models.EODResult{
		Bars: make([]models.DailyBar, 0, len(bars)),
	}

	for _, bar := range bars {
		date, err := time.Parse("2006-01-02", bar.Date)
		if err != nil {
			c.logger.Warn().Str("ticker", ticker).Str("date", bar.Date).Msg("Skipping EOD bar with unparseable date")
			continue
		}
		result.Bars = append(result.Bars, models.DailyBar{
			Date:     date,
			Open:     float64(bar.Open),
			High:     float64(bar.High),
			Low:      float64(bar.Low),
			Close:    float64(bar.Close),
			AdjClose: float64(bar.AdjustedClose),
			Volume:   int64(bar.Volume),
		})
	}

	slices.SortStableFunc(result.Bars, func(a, b models.DailyBar) int {
		return a.Date.Compare(b.Date)
	})

	c.logger.Debug().Str("ticker", ticker).Int("bars", len(result.Bars)).Msg("EODHD EOD bars received")

	return result, nil
}

// eodBarResponse represents the API response for EOD data
type eodBarResponse struct {
	Date          string      `json:"date"`
	Open          flexFloat64 `json:"open"`
	High          flexFloat64 `json:"high"`
	Low           flexFloat64 `json:"low"`
	Close         flexFloat64 `json:"close"`
	AdjustedClose flexFloat64 `json:"adjusted_close"`
	Volume        flexFloat64 `json:"volume"`
}

// parseWarning detects the warning sentinel: a one-element array (or a bare
// object) whose record has a "warning" key.
func parseWarning(body []byte) (string, bool) {
	type warningRecord struct {
		Warning *string `json:"warning"`
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", false
	}

	switch trimmed[0] {
	case '[':
		var records []warningRecord
		if err := json.Unmarshal(trimmed, &records); err != nil || len(records) != 1 {
			return "", false
		}
		if records[0].Warning != nil {
			return *records[0].Warning, true
		}
	case '{':
		var record warningRecord
		if err := json.Unmarshal(trimmed, &record); err == nil && record.Warning != nil {
			return *record.Warning, true
		}
	}
	return "", false
}

// Ensure Client implements EODHDClient
var _ interfaces.EODHDClient = (*Client)(nil)
