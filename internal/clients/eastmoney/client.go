// Package eastmoney provides a client for Eastmoney fund and quote APIs
package eastmoney

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/fundlens/fundlens/internal/common"
	"github.com/fundlens/fundlens/internal/interfaces"
	"github.com/fundlens/fundlens/internal/models"
)

const (
	DefaultFundBaseURL  = "https://fundmobapi.eastmoney.com/FundMNewApi"
	DefaultQuoteBaseURL = "https://push2.eastmoney.com/api/qt"
	DefaultKlineBaseURL = "https://push2his.eastmoney.com/api/qt"
	DefaultTimeout      = 30 * time.Second
	DefaultRateLimit    = 5 // requests per second

	// Browser-imitating headers; the push2 endpoints reject bare clients.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	referer   = "https://fund.eastmoney.com/"
)

// Client implements the FundDataClient interface against Eastmoney endpoints.
type Client struct {
	fundBaseURL  string
	quoteBaseURL string
	klineBaseURL string
	httpClient   *http.Client
	logger       *common.Logger
	limiter      *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

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

// WithBaseURLs overrides the fund, quote, and kline base URLs. Empty strings
// leave the corresponding default in place.
func WithBaseURLs(fund, quote, kline string) ClientOption {
	return func(c *Client) {
		if fund != "" {
			c.fundBaseURL = fund
		}
		if quote != "" {
			c.quoteBaseURL = quote
		}
		if kline != "" {
			c.klineBaseURL = kline
		}
	}
}

// NewClient creates a new Eastmoney client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		fundBaseURL:  DefaultFundBaseURL,
		quoteBaseURL: DefaultQuoteBaseURL,
		klineBaseURL: DefaultKlineBaseURL,
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

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("eastmoney API error %d on %s: %s", e.StatusCode, e.Endpoint, e.Message)
}

// get performs a rate-limited GET and returns the response body.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", referer)
	req.Header.Set("Accept", "application/json, text/plain, */*")

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
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   endpoint,
		}
	}

	return body, nil
}

// GetFundHoldings retrieves the fund's disclosed stock positions. Records
// with an unparseable percentage are skipped individually rather than failing
// the whole fetch.
func (c *Client) GetFundHoldings(ctx context.Context, fundCode string) ([]models.Holding, error) {
	endpoint := fmt.Sprintf("%s/FundMNInverstPosition?FCODE=%s&deviceid=Wap&plat=Wap&product=EFund&version=6.2.5",
		c.fundBaseURL, url.QueryEscape(fundCode))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	stocks := gjson.GetBytes(body, "Datas.fundStocks")
	if !stocks.Exists() || !stocks.IsArray() {
		return nil, nil
	}

	asOf := parseDate(gjson.GetBytes(body, "Expansion").String())

	var holdings []models.Holding
	for _, item := range stocks.Array() {
		code := item.Get("GPDM").String()
		if code == "" {
			continue
		}
		pct, err := strconv.ParseFloat(strings.TrimSpace(item.Get("JZBL").String()), 64)
		if err != nil {
			c.logger.Debug().
				Str("fund", fundCode).
				Str("stock", code).
				Str("raw", item.Get("JZBL").String()).
				Msg("Skipping holding with malformed percentage")
			continue
		}
		holdings = append(holdings, models.Holding{
			StockCode:  code,
			StockName:  item.Get("GPJC").String(),
			Percentage: pct,
			AsOf:       asOf,
		})
	}

	return holdings, nil
}

// GetFundAssetAllocation retrieves the fund's disclosed asset mix. The
// endpoint reports percentages in 0–100 terms; ratios are returned in [0,1].
// Unparseable fields ("--" for funds without a bond book, etc.) read as 0.
func (c *Client) GetFundAssetAllocation(ctx context.Context, fundCode string) (*models.AssetAllocation, error) {
	endpoint := fmt.Sprintf("%s/FundMNAssetAllocationNew?FCODE=%s&deviceid=Wap&plat=Wap&product=EFund&version=6.2.5",
		c.fundBaseURL, url.QueryEscape(fundCode))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	datas := gjson.GetBytes(body, "Datas")
	if !datas.Exists() || !datas.IsArray() || len(datas.Array()) == 0 {
		return nil, nil
	}

	// Most recent disclosure first
	latest := datas.Array()[0]

	return &models.AssetAllocation{
		StockRatio: parseRatio(latest.Get("GP").String()),
		BondRatio:  parseRatio(latest.Get("ZQ").String()),
		CashRatio:  parseRatio(latest.Get("HB").String()),
		OtherRatio: parseRatio(latest.Get("QT").String()),
		AsOf:       parseDate(latest.Get("FSRQ").String()),
	}, nil
}

// GetStockQuotes retrieves live quotes for a batch of stock codes via the
// ulist endpoint. Suspended or unknown codes are absent from the result map.
func (c *Client) GetStockQuotes(ctx context.Context, codes []string) (map[string]models.StockQuote, error) {
	if len(codes) == 0 {
		return map[string]models.StockQuote{}, nil
	}

	secids := make([]string, len(codes))
	for i, code := range codes {
		secids[i] = secID(code)
	}

	// fltt=2: prices arrive as decimals rather than scaled integers
	// f2 price, f3 change pct, f12 code, f14 name, f18 prev close
	endpoint := fmt.Sprintf("%s/ulist.np/get?fltt=2&fields=f2,f3,f12,f14,f18&secids=%s",
		c.quoteBaseURL, strings.Join(secids, ","))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	diff := gjson.GetBytes(body, "data.diff")
	if !diff.Exists() {
		return nil, nil
	}

	quotes := make(map[string]models.StockQuote)
	diff.ForEach(func(_, item gjson.Result) bool {
		code := item.Get("f12").String()
		if code == "" {
			return true
		}
		price, err := strconv.ParseFloat(item.Get("f2").String(), 64)
		if err != nil {
			// "-" while suspended: no usable quote for this code
			return true
		}
		changePct, err := strconv.ParseFloat(item.Get("f3").String(), 64)
		if err != nil {
			return true
		}
		prevClose, _ := strconv.ParseFloat(item.Get("f18").String(), 64)

		quotes[code] = models.StockQuote{
			Code:          code,
			Name:          item.Get("f14").String(),
			CurrentPrice:  price,
			PrevClose:     prevClose,
			ChangePercent: changePct,
		}
		return true
	})

	return quotes, nil
}

// kltByPeriod maps period identifiers to the kline endpoint's klt parameter.
var kltByPeriod = map[string]string{
	models.PeriodDaily:   "101",
	models.PeriodWeekly:  "102",
	models.PeriodMonthly: "103",
	models.Period1Min:    "1",
	models.Period5Min:    "5",
	models.Period15Min:   "15",
	models.Period30Min:   "30",
	models.Period60Min:   "60",
}

// GetKline retrieves OHLCV bars ordered by date ascending. Malformed lines in
// the response are skipped individually.
func (c *Client) GetKline(ctx context.Context, fundCode, period string, from, to time.Time) ([]models.KlineBar, error) {
	klt, ok := kltByPeriod[period]
	if !ok {
		return nil, fmt.Errorf("unsupported kline period %q", period)
	}

	beg := "0"
	if !from.IsZero() {
		beg = from.Format("20060102")
	}
	end := "20500101"
	if !to.IsZero() {
		end = to.Format("20060102")
	}

	// fields2: f51 date, f52 open, f53 close, f54 high, f55 low,
	// f56 volume, f57 amount, f59 change pct
	endpoint := fmt.Sprintf("%s/stock/kline/get?secid=%s&fields1=f1,f2,f3,f4,f5,f6&fields2=f51,f52,f53,f54,f55,f56,f57,f59&klt=%s&fqt=1&beg=%s&end=%s",
		c.klineBaseURL, secID(fundCode), klt, beg, end)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	klines := gjson.GetBytes(body, "data.klines")
	if !klines.Exists() || !klines.IsArray() {
		return nil, nil
	}

	var bars []models.KlineBar
	for _, line := range klines.Array() {
		bar, ok := parseKlineRow(line.String())
		if !ok {
			c.logger.Debug().
				Str("fund", fundCode).
				Str("row", line.String()).
				Msg("Skipping malformed kline row")
			continue
		}
		bars = append(bars, bar)
	}

	return bars, nil
}

// parseKlineRow parses one comma-separated kline row:
// date,open,close,high,low,volume,amount,change_pct
func parseKlineRow(row string) (models.KlineBar, bool) {
	fields := strings.Split(row, ",")
	if len(fields) < 8 {
		return models.KlineBar{}, false
	}

	date := parseDate(fields[0])
	if date.IsZero() {
		return models.KlineBar{}, false
	}

	nums := make([]float64, 7)
	for i := 0; i < 7; i++ {
		v, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return models.KlineBar{}, false
		}
		nums[i] = v
	}

	return models.KlineBar{
		Date:      date,
		Open:      nums[0],
		Close:     nums[1],
		High:      nums[2],
		Low:       nums[3],
		Volume:    int64(nums[4]),
		Amount:    nums[5],
		ChangePct: nums[6],
	}, true
}

// secID builds the Eastmoney security id: market prefix 1 for Shanghai
// (codes starting 5/6/9), 0 for Shenzhen.
func secID(code string) string {
	if strings.HasPrefix(code, "5") || strings.HasPrefix(code, "6") || strings.HasPrefix(code, "9") {
		return "1." + code
	}
	return "0." + code
}

// parseRatio converts a 0–100 percentage string to a [0,1] ratio; anything
// unparseable ("--", empty) reads as 0.
func parseRatio(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil {
		return 0
	}
	return v / 100
}

// parseDate accepts the date layouts the endpoints emit.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Ensure Client implements FundDataClient
var _ interfaces.FundDataClient = (*Client)(nil)
