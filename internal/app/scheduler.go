package app

import (
	"context"
	"time"

	"github.com/fundlens/fundlens/internal/common"
	"github.com/fundlens/fundlens/internal/interfaces"
	"github.com/fundlens/fundlens/internal/models"
)

// startEstimateRefresh re-estimates every tracked fund on a fixed interval so
// the cache stays warm and WebSocket consumers see fresh values without
// waiting on an API call.
func startEstimateRefresh(ctx context.Context, estimator interfaces.EstimatorService, funds interfaces.FundStore, logger *common.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Estimate refresh: stopped")
			return
		case <-ticker.C:
			refreshEstimates(ctx, estimator, funds, logger)
		}
	}
}

func refreshEstimates(ctx context.Context, estimator interfaces.EstimatorService, funds interfaces.FundStore, logger *common.Logger) {
	start := time.Now()

	tracked, err := funds.ListFunds(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Estimate refresh: failed to list funds")
		return
	}
	if len(tracked) == 0 {
		return
	}

	refreshed := 0
	for _, fund := range tracked {
		if ctx.Err() != nil {
			return
		}
		if _, err := estimator.Estimate(ctx, fund.Code); err != nil {
			logger.Debug().Err(err).Str("fund", fund.Code).Msg("Estimate refresh: no estimate")
			continue
		}
		refreshed++
	}

	logger.Info().
		Int("funds", len(tracked)).
		Int("refreshed", refreshed).
		Dur("elapsed", time.Since(start)).
		Msg("Estimate refresh: complete")
}

// startNavSync persists the published NAV of every tracked fund on a fixed
// interval. One sync runs immediately at startup so the estimation engine has
// NAV history before the first estimate; without stored records the
// holdings-based tier can never activate.
func startNavSync(ctx context.Context, vendor interfaces.RealtimeNavClient, funds interfaces.FundStore, logger *common.Logger, interval time.Duration) {
	syncNavRecords(ctx, vendor, funds, logger)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("NAV sync: stopped")
			return
		case <-ticker.C:
			syncNavRecords(ctx, vendor, funds, logger)
		}
	}
}

// syncNavRecords upserts one NAV record per tracked fund. The vendor payload
// already carries the last published NAV (dwjz) and its date (jzrq), so no
// extra endpoint is needed. Per-fund failures skip that fund, never the sweep.
func syncNavRecords(ctx context.Context, vendor interfaces.RealtimeNavClient, funds interfaces.FundStore, logger *common.Logger) {
	start := time.Now()

	tracked, err := funds.ListFunds(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("NAV sync: failed to list funds")
		return
	}
	if len(tracked) == 0 {
		return
	}

	var records []models.NavRecord
	for _, fund := range tracked {
		if ctx.Err() != nil {
			return
		}

		nav, err := vendor.GetRealtimeNav(ctx, fund.Code)
		if err != nil || nav == nil {
			if err != nil {
				logger.Warn().Err(err).Str("fund", fund.Code).Msg("NAV sync: fetch failed")
			}
			continue
		}

		date, err := time.Parse("2006-01-02", nav.NavDate)
		if err != nil {
			logger.Debug().Str("fund", fund.Code).Str("raw", nav.NavDate).Msg("NAV sync: unparseable NAV date")
			continue
		}
		if nav.CurrentNav <= 0 {
			continue
		}

		records = append(records, models.NavRecord{
			FundCode: fund.Code,
			Date:     date,
			Nav:      nav.CurrentNav,
		})
	}

	if len(records) == 0 {
		return
	}

	if err := funds.SaveNavRecords(ctx, records); err != nil {
		logger.Warn().Err(err).Msg("NAV sync: failed to save records")
		return
	}

	logger.Info().
		Int("funds", len(tracked)).
		Int("records", len(records)).
		Dur("elapsed", time.Since(start)).
		Msg("NAV sync: complete")
}

// startAlertPolling sweeps the active alerts on a fixed interval.
func startAlertPolling(ctx context.Context, alerts interfaces.AlertService, logger *common.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Alert polling: stopped")
			return
		case <-ticker.C:
			fired, err := alerts.CheckAll(ctx)
			if err != nil {
				logger.Warn().Err(err).Msg("Alert polling: sweep failed")
				continue
			}
			if len(fired) > 0 {
				logger.Info().Int("fired", len(fired)).Msg("Alert polling: alerts triggered")
			}
		}
	}
}
