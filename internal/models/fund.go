// Package models defines data structures for fundlens
package models

import (
	"strings"
	"time"
)

// Fund holds basic registry data for a tracked fund.
type Fund struct {
	Code      string    `json:"code" badgerhold:"key"`
	Name      string    `json:"name"`
	Type      string    `json:"type,omitempty"`
	Company   string    `json:"company,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FeederMarker is the substring in a fund's display name that identifies an
// index/ETF feeder ("联接") fund. Feeder funds track a target ETF, so their own
// disclosed holdings do not represent the fund's pricing.
const FeederMarker = "联接"

// IsFeederFund reports whether the display name marks an index/ETF feeder fund.
func IsFeederFund(name string) bool {
	return strings.Contains(name, FeederMarker)
}

// Holding is one disclosed stock position of a fund. Percentage is expressed
// in 0–100 terms; positions across a fund need not sum to 100.
type Holding struct {
	StockCode  string    `json:"stock_code"`
	StockName  string    `json:"stock_name,omitempty"`
	Percentage float64   `json:"percentage"`
	AsOf       time.Time `json:"as_of,omitempty"`
}

// AssetAllocation holds a fund's disclosed asset mix. Ratios are in [0,1] and
// are independently sourced, so they are not required to sum to 1.
type AssetAllocation struct {
	StockRatio float64   `json:"stock_ratio"`
	BondRatio  float64   `json:"bond_ratio"`
	CashRatio  float64   `json:"cash_ratio"`
	OtherRatio float64   `json:"other_ratio"`
	AsOf       time.Time `json:"as_of,omitempty"`
}

// StockQuote is a transient live quote for a single stock.
type StockQuote struct {
	Code          string  `json:"code"`
	Name          string  `json:"name,omitempty"`
	CurrentPrice  float64 `json:"current_price"`
	PrevClose     float64 `json:"prev_close"`
	ChangePercent float64 `json:"change_percent"`
}

// VendorNav is the vendor's own real-time NAV estimate for a fund.
type VendorNav struct {
	FundCode        string    `json:"fund_code"`
	FundName        string    `json:"fund_name"`
	NavDate         string    `json:"nav_date"`         // date of CurrentNav, YYYY-MM-DD
	CurrentNav      float64   `json:"current_nav"`      // last published NAV
	EstimatedNav    float64   `json:"estimated_nav"`    // vendor intraday estimate
	EstimatedGrowth float64   `json:"estimated_growth"` // vendor estimated growth, percent
	UpdateTime      time.Time `json:"update_time,omitempty"`
}

// NavRecord is one published NAV value for a fund. Owned by the persistence
// layer; the estimation engine only reads these.
type NavRecord struct {
	FundCode       string    `json:"fund_code" badgerhold:"index"`
	Date           time.Time `json:"date"`
	Nav            float64   `json:"nav"`
	AccumulatedNav float64   `json:"accumulated_nav,omitempty"`
	DailyGrowth    float64   `json:"daily_growth,omitempty"`
}
