// Package estimator provides real-time NAV estimation with tiered fallback
package estimator

import (
	"context"
	"time"

	"github.com/fundlens/fundlens/internal/cache"
	"github.com/fundlens/fundlens/internal/common"
	"github.com/fundlens/fundlens/internal/interfaces"
	"github.com/fundlens/fundlens/internal/models"
)

// DefaultStockRatio is assumed when a fund's asset allocation is unavailable:
// holdings-only funds are treated as ~95% equity exposure absent better data.
const DefaultStockRatio = 0.95

// DefaultResultTTL bounds recomputation cost. Kept short because the source
// quotes move intraday.
const DefaultResultTTL = time.Minute

// DefaultFundInfoTTL bounds registry lookups. Fund display names change on
// registry writes, which invalidate the cache, so a long TTL is safe.
const DefaultFundInfoTTL = time.Hour

// cstLocation is the Asia/Shanghai timezone of the market session window.
var cstLocation = mustLoadLocation("Asia/Shanghai")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		// Fallback to a fixed CST zone if tzdata is unavailable (e.g., minimal container)
		return time.FixedZone("CST", 8*60*60)
	}
	return loc
}

// Service implements EstimatorService with a holdings-based primary tier and
// a vendor-estimate fallback tier.
type Service struct {
	market  interfaces.FundDataClient
	vendor  interfaces.RealtimeNavClient
	store   interfaces.FundStore
	cache   interfaces.Cache
	logger  *common.Logger
	ttl     time.Duration
	infoTTL time.Duration
	now     func() time.Time // injectable clock for testing
}

// NewService creates a new estimator service.
// store may be nil — the holdings tier and the published-NAV check are then
// skipped and every estimate comes from the vendor tier.
// c may be nil — results are recomputed on every call.
func NewService(market interfaces.FundDataClient, vendor interfaces.RealtimeNavClient, store interfaces.FundStore, c interfaces.Cache, logger *common.Logger) *Service {
	return &Service{
		market:  market,
		vendor:  vendor,
		store:   store,
		cache:   c,
		logger:  logger,
		ttl:     DefaultResultTTL,
		infoTTL: DefaultFundInfoTTL,
		now:     time.Now,
	}
}

// SetResultTTL overrides the cache TTL for estimation results.
func (s *Service) SetResultTTL(ttl time.Duration) {
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

// Estimate returns the current NAV estimate for a fund.
//
// Tiers are tried in order, short-circuiting on success: cached result, then
// the holdings-weighted estimate, then the vendor's own estimate. Feeder
// ("联接") funds skip the holdings tier because their disclosed holdings do
// not represent the feeder's own pricing. When every tier fails the method
// returns models.ErrEstimateUnavailable, a retryable "temporarily no
// estimate" rather than a hard fault.
func (s *Service) Estimate(ctx context.Context, fundCode string) (*models.EstimationResult, error) {
	key := cache.Key("fund", fundCode, "nav", "realtime")
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if result, ok := v.(*models.EstimationResult); ok {
				return result, nil
			}
		}
	}

	fundName := s.resolveFundName(ctx, fundCode)

	if !models.IsFeederFund(fundName) {
		if result := s.estimateFromHoldings(ctx, fundCode, fundName); result != nil {
			s.storeResult(key, result)
			return result, nil
		}
	} else {
		s.logger.Debug().
			Str("fund", fundCode).
			Str("name", fundName).
			Msg("Feeder fund, skipping holdings tier")
	}

	result := s.estimateFromVendor(ctx, fundCode, fundName)
	if result == nil {
		return nil, models.ErrEstimateUnavailable
	}

	s.storeResult(key, result)
	return result, nil
}

func (s *Service) storeResult(key string, result *models.EstimationResult) {
	if s.cache != nil {
		s.cache.Set(key, result, s.ttl)
	}
}

// resolveFundName returns the stored display name, or empty when the fund is
// not in the registry. Hits are cached: the name drives feeder classification
// on every estimate, and registry writes invalidate the fund's keys.
func (s *Service) resolveFundName(ctx context.Context, fundCode string) string {
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

// estimateFromHoldings computes the holdings-weighted estimate. Any missing
// input (no stored NAV, no holdings) returns nil and the caller advances to
// the vendor tier. A quote fetch failure does not: the estimate is then built
// over zero coverage, reporting the previous NAV unchanged.
func (s *Service) estimateFromHoldings(ctx context.Context, fundCode, fundName string) *models.EstimationResult {
	if s.store == nil {
		return nil
	}

	previous, err := s.store.LatestNav(ctx, fundCode)
	if err != nil || previous == nil {
		s.logger.Debug().Str("fund", fundCode).Msg("No stored NAV, falling back to vendor estimate")
		return nil
	}

	holdings, err := s.market.GetFundHoldings(ctx, fundCode)
	if err != nil || len(holdings) == 0 {
		if err != nil {
			s.logger.Warn().Err(err).Str("fund", fundCode).Msg("Holdings fetch failed")
		}
		return nil
	}

	stockRatio := DefaultStockRatio
	allocation, err := s.market.GetFundAssetAllocation(ctx, fundCode)
	if err == nil && allocation != nil {
		stockRatio = allocation.StockRatio
	}

	codes := make([]string, len(holdings))
	for i, h := range holdings {
		codes[i] = h.StockCode
	}

	quotes, err := s.market.GetStockQuotes(ctx, codes)
	if err != nil {
		s.logger.Warn().Err(err).Str("fund", fundCode).Msg("Quote fetch failed, estimating over zero coverage")
		quotes = nil
	}

	// Weighted change over the holdings a quote came back for.
	weightedChange := 0.0
	totalWeight := 0.0
	for _, h := range holdings {
		quote, ok := quotes[h.StockCode]
		if !ok {
			continue
		}
		weight := h.Percentage / 100
		weightedChange += weight * quote.ChangePercent / 100
		totalWeight += weight
	}

	// Renormalize for missing quotes so the estimate reflects the covered
	// portion's behavior instead of being diluted toward zero. Zero coverage
	// never divides: weightedChange stays 0.
	if totalWeight > 0 && totalWeight < 1.0 {
		weightedChange /= totalWeight
	}

	estimatedNav := previous.Nav * (1 + weightedChange*stockRatio)
	changePercent := weightedChange * stockRatio * 100

	if fundName == "" {
		fundName = fundCode
	}

	count := len(holdings)
	ratio := stockRatio
	return s.buildResult(&models.EstimationResult{
		FundCode:      fundCode,
		FundName:      fundName,
		CurrentNav:    previous.Nav,
		EstimatedNav:  estimatedNav,
		ChangePercent: changePercent,
		Method:        models.MethodHoldingsBased,
		StockRatio:    &ratio,
		HoldingsCount: &count,
	})
}

// estimateFromVendor reports the vendor's own estimate. When today's official
// NAV is already published in storage, the published value is reported with
// zero change; otherwise the vendor estimate stands regardless of session
// state, since it remains the best-available figure until the official value
// lands.
func (s *Service) estimateFromVendor(ctx context.Context, fundCode, fundName string) *models.EstimationResult {
	vendorNav, err := s.vendor.GetRealtimeNav(ctx, fundCode)
	if err != nil {
		s.logger.Warn().Err(err).Str("fund", fundCode).Msg("Vendor realtime NAV fetch failed")
		return nil
	}
	if vendorNav == nil {
		s.logger.Debug().Str("fund", fundCode).Msg("Fund not covered by vendor realtime NAV")
		return nil
	}

	var published *models.NavRecord
	if s.store != nil {
		published, _ = s.store.NavOn(ctx, fundCode, s.today())
	}

	actualNav := vendorNav.CurrentNav
	if published != nil {
		actualNav = published.Nav
	}

	estimatedNav := vendorNav.EstimatedNav
	changePercent := vendorNav.EstimatedGrowth
	if published != nil {
		// Official value has landed, nothing left to estimate today.
		estimatedNav = actualNav
		changePercent = 0
	}

	if fundName == "" {
		fundName = vendorNav.FundName
	}
	if fundName == "" {
		fundName = fundCode
	}

	return s.buildResult(&models.EstimationResult{
		FundCode:      fundCode,
		FundName:      fundName,
		CurrentNav:    actualNav,
		EstimatedNav:  estimatedNav,
		ChangePercent: changePercent,
		Method:        models.MethodTiantianAPI,
	})
}

// buildResult stamps the shared fields and enforces the non-negative NAV
// invariant.
func (s *Service) buildResult(result *models.EstimationResult) *models.EstimationResult {
	now := s.now()
	result.LastUpdate = now
	result.IsTradingHours = isTradingHours(now)
	if result.EstimatedNav < 0 {
		result.EstimatedNav = 0
	}
	if result.CurrentNav < 0 {
		result.CurrentNav = 0
	}
	return result
}

// today returns the current date truncated to midnight in the market's zone.
func (s *Service) today() time.Time {
	t := s.now().In(cstLocation)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, cstLocation)
}

// isTradingHours reports whether the given time falls within the market
// session: 09:30-15:00 Asia/Shanghai, Monday to Friday. Descriptive only: it
// annotates results and never gates which estimation tier runs.
func isTradingHours(t time.Time) bool {
	cst := t.In(cstLocation)
	weekday := cst.Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		return false
	}
	hour, min, _ := cst.Clock()
	minuteOfDay := hour*60 + min
	// 09:30 = 570, 15:00 = 900
	return minuteOfDay >= 570 && minuteOfDay <= 900
}

// Ensure Service implements EstimatorService
var _ interfaces.EstimatorService = (*Service)(nil)
