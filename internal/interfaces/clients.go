// Package interfaces defines service contracts for fundlens
package interfaces

import (
	"context"
	"time"

	"github.com/fundlens/fundlens/internal/models"
)

// FundDataClient provides fund disclosure and stock quote data from the
// market-data gateway. Every call may fail independently; callers treat a
// failure or an empty result as "no data" and fall through to the next tier.
type FundDataClient interface {
	// GetFundHoldings retrieves the fund's disclosed stock positions.
	GetFundHoldings(ctx context.Context, fundCode string) ([]models.Holding, error)

	// GetFundAssetAllocation retrieves the fund's disclosed asset mix.
	GetFundAssetAllocation(ctx context.Context, fundCode string) (*models.AssetAllocation, error)

	// GetStockQuotes retrieves live quotes for a batch of stock codes.
	// Codes with no quote are absent from the result map.
	GetStockQuotes(ctx context.Context, codes []string) (map[string]models.StockQuote, error)

	// GetKline retrieves OHLCV bars ordered by date ascending.
	// from/to may be zero to leave the range unbounded on that side.
	GetKline(ctx context.Context, fundCode, period string, from, to time.Time) ([]models.KlineBar, error)
}

// RealtimeNavClient provides the vendor's own real-time NAV estimate.
type RealtimeNavClient interface {
	// GetRealtimeNav retrieves the vendor estimate for a fund.
	GetRealtimeNav(ctx context.Context, fundCode string) (*models.VendorNav, error)
}
