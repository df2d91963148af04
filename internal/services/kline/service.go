// Package kline serves OHLCV series with technical indicators and summaries
package kline

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/fundlens/fundlens/internal/cache"
	"github.com/fundlens/fundlens/internal/common"
	"github.com/fundlens/fundlens/internal/indicators"
	"github.com/fundlens/fundlens/internal/interfaces"
	"github.com/fundlens/fundlens/internal/models"
)

// DefaultSeriesTTL matches how often history bars can actually change: a new
// daily bar lands at most once per session.
const DefaultSeriesTTL = 6 * time.Hour

// DefaultFundInfoTTL bounds registry lookups for fund display names.
const DefaultFundInfoTTL = time.Hour

// summaryWindow is the number of trailing bars the summary statistics cover.
const summaryWindow = 30

// Service implements KlineService on top of the market-data gateway and the
// indicator pipeline.
type Service struct {
	market  interfaces.FundDataClient
	store   interfaces.FundStore
	cache   interfaces.Cache
	logger  *common.Logger
	ttl     time.Duration
	infoTTL time.Duration
}

// NewService creates a new kline service. store may be nil; fund names are
// then omitted from results. c may be nil to disable caching.
func NewService(market interfaces.FundDataClient, store interfaces.FundStore, c interfaces.Cache, logger *common.Logger) *Service {
	return &Service{
		market:  market,
		store:   store,
		cache:   c,
		logger:  logger,
		ttl:     DefaultSeriesTTL,
		infoTTL: DefaultFundInfoTTL,
	}
}

// SetSeriesTTL overrides the cache TTL for bar series.
func (s *Service) SetSeriesTTL(ttl time.Duration) {
	if ttl > 0 {
		s.ttl = ttl
	}
}

// SetFundInfoTTL overrides the cache TTL for fund registry lookups.
func (s *Service) SetFundInfoTTL(ttl time.Duration) {
	if ttl > 0 {
		s.infoTTL = ttl
	}
}

// GetKline returns the bar series for a fund over the given range, with
// indicator fields attached when withIndicators is true. An empty series from
// the gateway is an error: the caller asked for a fund or range with no data.
func (s *Service) GetKline(ctx context.Context, fundCode, period string, from, to time.Time, withIndicators bool) (*models.KlineSeries, error) {
	key := seriesKey(fundCode, period, from, to, withIndicators)
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if series, ok := v.(*models.KlineSeries); ok {
				return series, nil
			}
		}
	}

	bars, err := s.market.GetKline(ctx, fundCode, period, from, to)
	if err != nil {
		return nil, fmt.Errorf("kline fetch for %s failed: %w", fundCode, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no kline data for %s period %s", fundCode, period)
	}

	if withIndicators {
		bars = indicators.Compute(bars)
	}

	series := &models.KlineSeries{
		FundCode:  fundCode,
		FundName:  s.fundName(ctx, fundCode),
		Period:    period,
		StartDate: bars[0].Date.Format("2006-01-02"),
		EndDate:   bars[len(bars)-1].Date.Format("2006-01-02"),
		Bars:      bars,
	}

	if s.cache != nil {
		s.cache.Set(key, series, s.ttl)
	}
	return series, nil
}

// Summary condenses the trailing 30 bars into headline statistics and coarse
// signals. Signals compare the latest bar's indicator values: MA5 over MA20
// reads bullish, DIF over DEA reads bullish, RSI6 beyond 70/30 reads
// overbought/oversold. A zero indicator value reads as not-yet-formed and
// leaves the signal neutral.
func (s *Service) Summary(ctx context.Context, fundCode, period string) (*models.KlineSummary, error) {
	series, err := s.GetKline(ctx, fundCode, period, time.Time{}, time.Time{}, true)
	if err != nil {
		return nil, err
	}

	bars := series.Bars
	recent := bars
	if len(recent) > summaryWindow {
		recent = recent[len(recent)-summaryWindow:]
	}

	latest := recent[len(recent)-1]
	previous := latest
	if len(recent) >= 2 {
		previous = recent[len(recent)-2]
	}

	change := latest.Close - previous.Close
	changePct := 0.0
	if previous.Close != 0 {
		changePct = change / previous.Close * 100
	}

	high, low, sum := recent[0].Close, recent[0].Close, 0.0
	for _, b := range recent {
		if b.Close > high {
			high = b.Close
		}
		if b.Close < low {
			low = b.Close
		}
		sum += b.Close
	}

	summary := &models.KlineSummary{
		FundCode:   fundCode,
		FundName:   series.FundName,
		Period:     period,
		Date:       latest.Date.Format("2006-01-02"),
		Close:      latest.Close,
		Change:     round(change, 4),
		ChangePct:  round(changePct, 2),
		High30:     round(high, 4),
		Low30:      round(low, 4),
		Avg30:      round(sum/float64(len(recent)), 4),
		DataPoints: len(bars),
		MA5:        latest.MA5,
		MA20:       latest.MA20,
		MA60:       latest.MA60,
		Trend:      trendSignal(latest),
		MACDSignal: macdSignal(latest),
		RSISignal:  rsiSignal(latest),
	}
	return summary, nil
}

func trendSignal(bar models.KlineBar) string {
	if bar.MA5 == 0 || bar.MA20 == 0 {
		return "neutral"
	}
	if bar.MA5 > bar.MA20 {
		return "bullish"
	}
	return "bearish"
}

func macdSignal(bar models.KlineBar) string {
	if bar.MACDDif == 0 || bar.MACDDea == 0 {
		return "neutral"
	}
	if bar.MACDDif > bar.MACDDea {
		return "bullish"
	}
	return "bearish"
}

func rsiSignal(bar models.KlineBar) string {
	switch {
	case bar.RSI6 == 0:
		return "neutral"
	case bar.RSI6 > 70:
		return "overbought"
	case bar.RSI6 < 30:
		return "oversold"
	default:
		return "neutral"
	}
}

// fundName returns the stored display name, cached against repeated registry
// reads across series and summary requests.
func (s *Service) fundName(ctx context.Context, fundCode string) string {
	if s.store == nil {
		return ""
	}

	key := cache.Key("fund", fundCode, "info")
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if name, ok := v.(string); ok {
				return name
			}
		}
	}

	fund, err := s.store.GetFund(ctx, fundCode)
	if err != nil || fund == nil {
		return ""
	}

	if s.cache != nil {
		s.cache.Set(key, fund.Name, s.infoTTL)
	}
	return fund.Name
}

func seriesKey(fundCode, period string, from, to time.Time, withIndicators bool) string {
	fromPart, toPart := "-", "-"
	if !from.IsZero() {
		fromPart = from.Format("20060102")
	}
	if !to.IsZero() {
		toPart = to.Format("20060102")
	}
	indPart := "raw"
	if withIndicators {
		indPart = "ind"
	}
	return cache.Key("fund", fundCode, "kline", period, fromPart, toPart, indPart)
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// Ensure Service implements KlineService
var _ interfaces.KlineService = (*Service)(nil)
