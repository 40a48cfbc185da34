// Package stats provides the pure numeric functions behind the dashboard
// metrics and the alert thresholds. All functions are stateless and operate
// on plain float64 sequences (typically daily aggregated counts).
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DefaultZThreshold is the z-score magnitude above which a point counts as a
// global anomaly.
const DefaultZThreshold = 2.5

// Mean returns the arithmetic mean, or 0 for an empty sequence.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// Variance returns the population variance (average of squared deviations,
// not sample-corrected), or 0 for an empty sequence.
func Variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := stat.Mean(xs, nil)
	var sum float64
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return sum / float64(len(xs))
}

// StdDev returns the population standard deviation. gonum's StdDev is
// sample-corrected, so the population form is derived from Variance.
func StdDev(xs []float64) float64 {
	return math.Sqrt(Variance(xs))
}

// ZScore returns how many standard deviations x lies from mean. The result
// is undefined for stddev == 0; callers must guard that case.
func ZScore(x, mean, stddev float64) float64 {
	return (x - mean) / stddev
}

// Percentile returns the empirical p-quantile (p in [0,1]) of xs, or 0 for an
// empty sequence. The input is not modified.
func Percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// Trend classifies the direction of a sequence.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// trendThresholdPct is the relative first-half/second-half change beyond
// which a sequence counts as trending.
const trendThresholdPct = 5.0

// TrendDirection splits the sequence at its midpoint and compares half
// means. Sequences shorter than 2 elements are stable by definition, as is
// any sequence whose first half averages to zero.
func TrendDirection(xs []float64) Trend {
	if len(xs) < 2 {
		return TrendStable
	}

	mid := len(xs) / 2
	first := Mean(xs[:mid])
	second := Mean(xs[mid:])
	if first == 0 {
		return TrendStable
	}

	changePct := (second - first) / first * 100
	switch {
	case changePct > trendThresholdPct:
		return TrendIncreasing
	case changePct < -trendThresholdPct:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// DetectAnomalies returns the indices whose z-score magnitude against the
// whole-sequence mean and stddev exceeds zThreshold. This is a global
// anomaly definition, not a rolling window. A zero-variance sequence has no
// anomalies.
func DetectAnomalies(xs []float64, zThreshold float64) []int {
	if len(xs) == 0 {
		return nil
	}
	mean := Mean(xs)
	stddev := StdDev(xs)
	if stddev == 0 {
		return nil
	}

	var anomalies []int
	for i, x := range xs {
		if math.Abs(ZScore(x, mean, stddev)) > zThreshold {
			anomalies = append(anomalies, i)
		}
	}
	return anomalies
}

// ConfidenceScore blends data volume, variance, and model accuracy into a
// [0,1] heuristic indicator: up to 0.4 from volume (saturating at 1000
// points), up to 0.3 from (1 - variance) floored at 0, up to 0.3 from the
// supplied model accuracy. Not a posterior probability.
func ConfidenceScore(dataPoints int, variance, modelAccuracy float64) float64 {
	volume := math.Min(float64(dataPoints)/1000, 1) * 0.4
	spread := math.Max(0, 1-variance) * 0.3
	accuracy := modelAccuracy * 0.3

	return math.Min(1, math.Max(0, volume+spread+accuracy))
}
