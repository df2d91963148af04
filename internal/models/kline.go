package models

import "time"

// Kline period identifiers accepted by the gateway and kline service.
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	Period1Min    = "1min"
	Period5Min    = "5min"
	Period15Min   = "15min"
	Period30Min   = "30min"
	Period60Min   = "60min"
)

// KlineBar is one OHLCV bar plus the indicator fields attached by the
// indicator pipeline. Bars in a series are ordered by date ascending; the
// pipeline appends indicator fields and never reorders or drops bars.
type KlineBar struct {
	Date      time.Time `json:"date"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume,omitempty"`
	Amount    float64   `json:"amount,omitempty"`
	ChangePct float64   `json:"change_pct,omitempty"`

	// Moving averages of close, expanding window for short series.
	MA5  float64 `json:"MA5,omitempty"`
	MA10 float64 `json:"MA10,omitempty"`
	MA20 float64 `json:"MA20,omitempty"`
	MA60 float64 `json:"MA60,omitempty"`

	// MACD(12,26,9)
	MACDDif  float64 `json:"MACD_DIF,omitempty"`
	MACDDea  float64 `json:"MACD_DEA,omitempty"`
	MACDHist float64 `json:"MACD_HIST,omitempty"`

	// KDJ(9,3,3)
	KDJK float64 `json:"KDJ_K,omitempty"`
	KDJD float64 `json:"KDJ_D,omitempty"`
	KDJJ float64 `json:"KDJ_J,omitempty"`

	// RSI over 6/12/24 bars
	RSI6  float64 `json:"RSI6,omitempty"`
	RSI12 float64 `json:"RSI12,omitempty"`
	RSI24 float64 `json:"RSI24,omitempty"`

	// Bollinger Bands(20,2)
	BollMid   float64 `json:"BOLL_MID,omitempty"`
	BollUpper float64 `json:"BOLL_UPPER,omitempty"`
	BollLower float64 `json:"BOLL_LOWER,omitempty"`
}

// KlineSeries is a fund's bar sequence with range metadata, as returned by the
// kline service.
type KlineSeries struct {
	FundCode  string     `json:"fund_code"`
	FundName  string     `json:"fund_name,omitempty"`
	Period    string     `json:"period"`
	StartDate string     `json:"start_date,omitempty"`
	EndDate   string     `json:"end_date,omitempty"`
	Bars      []KlineBar `json:"kline_data"`
}

// KlineSummary condenses the recent bars of a series into headline statistics
// and coarse signals for a quick overview.
type KlineSummary struct {
	FundCode   string  `json:"fund_code"`
	FundName   string  `json:"fund_name,omitempty"`
	Period     string  `json:"period"`
	Date       string  `json:"date"`
	Close      float64 `json:"close"`
	Change     float64 `json:"change"`
	ChangePct  float64 `json:"change_pct"`
	High30     float64 `json:"high_30"`
	Low30      float64 `json:"low_30"`
	Avg30      float64 `json:"avg_30"`
	DataPoints int     `json:"data_points"`

	MA5        float64 `json:"MA5"`
	MA20       float64 `json:"MA20"`
	MA60       float64 `json:"MA60"`
	Trend      string  `json:"trend"`       // bullish / bearish / neutral
	MACDSignal string  `json:"macd_signal"` // bullish / bearish / neutral
	RSISignal  string  `json:"rsi_signal"`  // overbought / oversold / neutral
}
