// Package tiantian provides a client for the Tiantian Fund realtime NAV API
package tiantian

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/fundlens/fundlens/internal/common"
	"github.com/fundlens/fundlens/internal/interfaces"
	"github.com/fundlens/fundlens/internal/models"
)

const (
	DefaultBaseURL   = "https://fundgz.1234567.com.cn/js"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// jsonpPattern extracts the JSON payload from the JSONP wrapper:
// jsonpgz({"fundcode":"001186",...});
var jsonpPattern = regexp.MustCompile(`jsonpgz\((.*)\)`)

// Client implements the RealtimeNavClient interface against the fundgz
// JSONP endpoint.
type Client struct {
	baseURL    string
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
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Tiantian client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
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

// realtimeNavPayload is the provider-native record; field names follow the
// vendor's abbreviations and are translated at this boundary only.
type realtimeNavPayload struct {
	FundCode        string `json:"fundcode"`
	Name            string `json:"name"`
	NavDate         string `json:"jzrq"`   // date of the published NAV
	CurrentNav      string `json:"dwjz"`   // published unit NAV
	EstimatedNav    string `json:"gsz"`    // intraday estimated NAV
	EstimatedGrowth string `json:"gszzl"`  // estimated growth, percent
	UpdateTime      string `json:"gztime"` // estimate timestamp
}

// GetRealtimeNav retrieves the vendor's realtime estimate for a fund. A fund
// the vendor does not cover returns (nil, nil).
func (c *Client) GetRealtimeNav(ctx context.Context, fundCode string) (*models.VendorNav, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/%s.js", c.baseURL, fundCode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Referer", "https://fund.eastmoney.com/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tiantian API error %d on %s", resp.StatusCode, endpoint)
	}

	match := jsonpPattern.FindSubmatch(body)
	if match == nil {
		// Unknown fund codes come back as an empty jsonp document
		c.logger.Debug().Str("fund", fundCode).Msg("No jsonp payload in fundgz response")
		return nil, nil
	}

	var payload realtimeNavPayload
	if err := json.Unmarshal(match[1], &payload); err != nil {
		return nil, fmt.Errorf("failed to parse fundgz payload for %s: %w", fundCode, err)
	}
	if payload.FundCode == "" {
		return nil, nil
	}

	nav := &models.VendorNav{
		FundCode:        payload.FundCode,
		FundName:        payload.Name,
		NavDate:         payload.NavDate,
		CurrentNav:      parseFloat(payload.CurrentNav),
		EstimatedNav:    parseFloat(payload.EstimatedNav),
		EstimatedGrowth: parseFloat(payload.EstimatedGrowth),
	}

	if t, err := time.Parse("2006-01-02 15:04", strings.TrimSpace(payload.UpdateTime)); err == nil {
		nav.UpdateTime = t
	}

	return nav, nil
}

// parseFloat reads a vendor numeric field; malformed values read as 0 rather
// than failing the fetch.
func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// Ensure Client implements RealtimeNavClient
var _ interfaces.RealtimeNavClient = (*Client)(nil)
