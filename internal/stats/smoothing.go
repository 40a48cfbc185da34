package stats

// DefaultSmoothingAlpha is the exponential smoothing factor used by the
// forecasting callers.
const DefaultSmoothingAlpha = 0.3

// MovingAverage returns the trailing windowed means of xs. Indices before a
// full window average over the points available so far, keeping the output
// the same length as the input.
func MovingAverage(xs []float64, window int) []float64 {
	if len(xs) == 0 || window <= 0 {
		return nil
	}

	out := make([]float64, len(xs))
	var sum float64
	for i, x := range xs {
		sum += x
		if i >= window {
			sum -= xs[i-window]
			out[i] = sum / float64(window)
			continue
		}
		out[i] = sum / float64(i+1)
	}
	return out
}

// ExponentialSmoothing returns the recursively smoothed sequence
// s[i] = alpha*x[i] + (1-alpha)*s[i-1], seeded from the raw first
// observation. The final value doubles as the one-step forecast.
func ExponentialSmoothing(xs []float64, alpha float64) []float64 {
	if len(xs) == 0 {
		return nil
	}

	out := make([]float64, len(xs))
	out[0] = xs[0]
	for i := 1; i < len(xs); i++ {
		out[i] = alpha*xs[i] + (1-alpha)*out[i-1]
	}
	return out
}

// Forecast returns the one-step exponential smoothing forecast for xs,
// or 0 for an empty sequence.
func Forecast(xs []float64, alpha float64) float64 {
	smoothed := ExponentialSmoothing(xs, alpha)
	if len(smoothed) == 0 {
		return 0
	}
	return smoothed[len(smoothed)-1]
}
