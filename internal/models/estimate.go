package models

import (
	"errors"
	"time"
)

// ErrEstimateUnavailable is returned when every estimation tier failed.
// Callers should treat it as "temporarily no estimate", not a hard fault.
var ErrEstimateUnavailable = errors.New("nav estimate unavailable")

// Calculation methods for an EstimationResult.
const (
	MethodHoldingsBased = "holdings_based"
	MethodTiantianAPI   = "tiantian_api"
)

// EstimationResult is a single NAV estimate for a fund. Immutable once built;
// a fresh instance is produced on every recomputation.
//
// StockRatio and HoldingsCount are populated exactly when Method is
// MethodHoldingsBased.
type EstimationResult struct {
	FundCode       string    `json:"fund_code"`
	FundName       string    `json:"fund_name"`
	CurrentNav     float64   `json:"current_nav"`
	EstimatedNav   float64   `json:"estimated_nav"`
	ChangePercent  float64   `json:"change_percent"`
	LastUpdate     time.Time `json:"last_update"`
	IsTradingHours bool      `json:"is_trading_hours"`
	Method         string    `json:"calculation_method"`
	StockRatio     *float64  `json:"stock_ratio,omitempty"`
	HoldingsCount  *int      `json:"holdings_count,omitempty"`
}

// AlertType values for Alert.Type.
const (
	AlertPriceAbove    = "price_above"
	AlertPriceBelow    = "price_below"
	AlertChangePercent = "change_percent"
)

// Alert is a user-configured threshold on a fund's estimated NAV.
type Alert struct {
	ID            string    `json:"id" badgerhold:"key"`
	FundCode      string    `json:"fund_code" badgerhold:"index"`
	Type          string    `json:"alert_type"`
	Threshold     float64   `json:"threshold"`
	Active        bool      `json:"is_active"`
	LastTriggered time.Time `json:"last_triggered,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// AlertNotification is the payload emitted when an alert fires. There is no
// debounce: a condition that stays true fires on every poll, so consumers
// should dedupe on (AlertID, TriggeredAt) if needed.
type AlertNotification struct {
	ID           string    `json:"id"`
	AlertID      string    `json:"alert_id"`
	FundCode     string    `json:"fund_code"`
	FundName     string    `json:"fund_name"`
	AlertType    string    `json:"alert_type"`
	Threshold    float64   `json:"threshold"`
	CurrentValue float64   `json:"current_value"`
	Message      string    `json:"message"`
	TriggeredAt  time.Time `json:"triggered_at"`
}
