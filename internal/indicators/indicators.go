// Package indicators computes technical indicators over ordered OHLCV series.
//
// Compute is pure and deterministic: it copies the input series, attaches
// indicator fields, and never mutates the input bars' OHLCV values, reorders
// them, or drops them. Series shorter than an indicator's lookback are handled
// with expanding windows, so even a single-bar series gets values.
package indicators

import (
	"github.com/fundlens/fundlens/internal/models"
)

// Default indicator parameters.
const (
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9

	KDJN  = 9
	KDJM1 = 3
	KDJM2 = 3

	BollPeriod = 20
	BollK      = 2
)

// MAPeriods are the moving-average windows attached to each bar.
var MAPeriods = []int{5, 10, 20, 60}

// RSIPeriods are the RSI windows attached to each bar.
var RSIPeriods = []int{6, 12, 24}

// Compute returns a copy of the series with all indicator fields attached.
func Compute(bars []models.KlineBar) []models.KlineBar {
	out := make([]models.KlineBar, len(bars))
	copy(out, bars)
	if len(out) == 0 {
		return out
	}

	closes := make([]float64, len(out))
	highs := make([]float64, len(out))
	lows := make([]float64, len(out))
	for i, b := range out {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
	}

	applyMA(out, closes)
	applyMACD(out, closes)
	applyKDJ(out, closes, highs, lows)
	applyRSI(out, closes)
	applyBoll(out, closes)

	return out
}

// applyMA attaches MA5/MA10/MA20/MA60: simple rolling means of close.
func applyMA(bars []models.KlineBar, closes []float64) {
	for _, p := range MAPeriods {
		ma := rollingApply(closes, p, mean)
		for i := range bars {
			v := round(ma[i], 4)
			switch p {
			case 5:
				bars[i].MA5 = v
			case 10:
				bars[i].MA10 = v
			case 20:
				bars[i].MA20 = v
			case 60:
				bars[i].MA60 = v
			}
		}
	}
}

// applyMACD attaches DIF/DEA/HIST. DEA is smoothed from the rounded DIF
// values, matching the column-wise evaluation order of the charting surface.
func applyMACD(bars []models.KlineBar, closes []float64) {
	fast := ewmaSpan(closes, MACDFast)
	slow := ewmaSpan(closes, MACDSlow)

	dif := make([]float64, len(closes))
	for i := range closes {
		dif[i] = round(fast[i]-slow[i], 4)
	}
	dea := ewmaSpan(dif, MACDSignal)

	for i := range bars {
		d := round(dea[i], 4)
		bars[i].MACDDif = dif[i]
		bars[i].MACDDea = d
		bars[i].MACDHist = round(2*(dif[i]-d), 4)
	}
}

// applyKDJ attaches K/D/J from the raw stochastic value over an n-bar range.
// A flat range (high == low over the window) reads as neutral: RSV = 50.
func applyKDJ(bars []models.KlineBar, closes, highs, lows []float64) {
	lowN := rollingApply(lows, KDJN, minimum)
	highN := rollingApply(highs, KDJN, maximum)

	rsv := make([]float64, len(closes))
	for i := range closes {
		denom := highN[i] - lowN[i]
		if denom == 0 {
			rsv[i] = 50
			continue
		}
		rsv[i] = (closes[i] - lowN[i]) / denom * 100
	}

	k := ewmaCom(rsv, float64(KDJM1-1))
	kRounded := make([]float64, len(k))
	for i := range k {
		kRounded[i] = round(k[i], 2)
	}
	d := ewmaCom(kRounded, float64(KDJM2-1))

	for i := range bars {
		dv := round(d[i], 2)
		bars[i].KDJK = kRounded[i]
		bars[i].KDJD = dv
		bars[i].KDJJ = round(3*kRounded[i]-2*dv, 2)
	}
}

// applyRSI attaches RSI6/RSI12/RSI24. Gains and losses are rolling-averaged
// over the period (expanding for short series); a zero average loss saturates
// RSI at 100.
func applyRSI(bars []models.KlineBar, closes []float64) {
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	for _, p := range RSIPeriods {
		avgGain := rollingApply(gains, p, mean)
		avgLoss := rollingApply(losses, p, mean)
		for i := range bars {
			var rsi float64
			if avgLoss[i] == 0 {
				rsi = 100
			} else {
				rs := avgGain[i] / avgLoss[i]
				rsi = 100 - 100/(1+rs)
			}
			v := round(rsi, 2)
			switch p {
			case 6:
				bars[i].RSI6 = v
			case 12:
				bars[i].RSI12 = v
			case 24:
				bars[i].RSI24 = v
			}
		}
	}
}

// applyBoll attaches the Bollinger mid/upper/lower bands.
func applyBoll(bars []models.KlineBar, closes []float64) {
	mid := rollingApply(closes, BollPeriod, mean)
	sd := rollingApply(closes, BollPeriod, stddev)

	for i := range bars {
		m := round(mid[i], 4)
		bars[i].BollMid = m
		bars[i].BollUpper = round(m+BollK*sd[i], 4)
		bars[i].BollLower = round(m-BollK*sd[i], 4)
	}
}
