// Package features turns heterogeneous scan signals into one normalized
// feature vector and applies deterministic safety/liquidity penalties.
package features

import (
	"math"
	"time"

	"gemscan/internal/domain"
)

// Indicator keys produced by ComputeIndicators.
const (
	IndicatorRSI         = "rsi"          // Wilder RSI(14), in [0,100]
	IndicatorMACD        = "macd"         // EMA12 - EMA26, sign-carrying, price units
	IndicatorVolatility  = "volatility"   // stddev of simple returns
	IndicatorRecency     = "recency"      // freshness of last sample, in [0,1]
	IndicatorVolumeTrend = "volume_trend" // recent/overall mean volume ratio
)

const (
	rsiPeriod        = 14
	macdFastPeriod   = 12
	macdSlowPeriod   = 26
	recencyHalfHours = 6.0 // recency halves every 6 hours of staleness
)

// ComputeIndicators derives technical indicators from a market chart.
// The chart must carry at least one price sample; callers degrade the
// stage when it does not.
func ComputeIndicators(chart *domain.MarketChart, now time.Time) map[string]float64 {
	prices := make([]float64, len(chart.Prices))
	for i, p := range chart.Prices {
		prices[i] = p.Value
	}

	out := map[string]float64{
		IndicatorRSI:         RSI(prices, rsiPeriod),
		IndicatorMACD:        MACD(prices),
		IndicatorVolatility:  ReturnVolatility(prices),
		IndicatorVolumeTrend: VolumeTrend(chart.Volumes),
	}

	if last, ok := chart.LastPrice(); ok {
		ageHours := now.Sub(time.UnixMilli(last.TimestampMs)).Hours()
		out[IndicatorRecency] = recencyWeight(ageHours)
	}
	return out
}

// RSI computes Wilder's relative strength index over the last `period`
// price changes. Returns 50 (neutral) when the series is too short.
func RSI(prices []float64, period int) float64 {
	if len(prices) < period+1 {
		return 50
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Wilder smoothing over the remainder of the series.
	for i := period + 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD returns the last value of EMA(12) - EMA(26). Zero when the series
// is shorter than the slow period.
func MACD(prices []float64) float64 {
	if len(prices) < macdSlowPeriod {
		return 0
	}
	return ema(prices, macdFastPeriod) - ema(prices, macdSlowPeriod)
}

func ema(prices []float64, period int) float64 {
	k := 2.0 / (float64(period) + 1)
	out := prices[0]
	for _, p := range prices[1:] {
		out = p*k + out*(1-k)
	}
	return out
}

// ReturnVolatility computes the standard deviation of simple returns.
func ReturnVolatility(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		returns = append(returns, prices[i]/prices[i-1]-1)
	}
	if len(returns) == 0 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))
	return math.Sqrt(variance)
}

// VolumeTrend compares the mean volume of the most recent quarter of the
// series against the overall mean. 1.0 means flat, >1 means accumulating.
func VolumeTrend(volumes []domain.PricePoint) float64 {
	if len(volumes) < 4 {
		return 1
	}

	var total float64
	for _, v := range volumes {
		total += v.Value
	}
	overall := total / float64(len(volumes))
	if overall == 0 {
		return 1
	}

	tail := volumes[len(volumes)-len(volumes)/4:]
	var recent float64
	for _, v := range tail {
		recent += v.Value
	}
	recent /= float64(len(tail))

	return recent / overall
}

// recencyWeight maps sample age in hours to [0,1] with exponential decay.
func recencyWeight(ageHours float64) float64 {
	if ageHours <= 0 {
		return 1
	}
	return math.Exp2(-ageHours / recencyHalfHours)
}
