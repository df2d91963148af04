package indicators

import "math"

// rollingApply computes reduce over a trailing window of up to `window`
// values. The effective window clamps to the available history, so the first
// bars are reduced over whatever exists up to that point (expanding window)
// rather than producing gaps.
func rollingApply(values []float64, window int, reduce func([]float64) float64) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		out[i] = reduce(values[start : i+1])
	}
	return out
}

func mean(window []float64) float64 {
	if len(window) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range window {
		sum += v
	}
	return sum / float64(len(window))
}

// stddev is the sample standard deviation (n-1 denominator). A single-sample
// window has zero variance by definition here, so one-bar series produce
// upper = mid = lower Bollinger bands.
func stddev(window []float64) float64 {
	if len(window) < 2 {
		return 0
	}
	m := mean(window)
	sum := 0.0
	for _, v := range window {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(window)-1))
}

func minimum(window []float64) float64 {
	low := window[0]
	for _, v := range window[1:] {
		if v < low {
			low = v
		}
	}
	return low
}

func maximum(window []float64) float64 {
	high := window[0]
	for _, v := range window[1:] {
		if v > high {
			high = v
		}
	}
	return high
}

// ewma computes an exponentially weighted moving average with the given
// smoothing factor and no bias adjustment: out[0] = x[0],
// out[t] = alpha*x[t] + (1-alpha)*out[t-1].
func ewma(values []float64, alpha float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// ewmaSpan parameterizes ewma by span: alpha = 2/(span+1).
func ewmaSpan(values []float64, span int) []float64 {
	return ewma(values, 2/float64(span+1))
}

// ewmaCom parameterizes ewma by center of mass: alpha = 1/(1+com).
func ewmaCom(values []float64, com float64) []float64 {
	return ewma(values, 1/(1+com))
}

// round rounds to the given number of decimal places.
func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
