package stats

// DefaultSeasonalPeriod assumes monthly phases over a yearly cycle.
const DefaultSeasonalPeriod = 12

// seasonalAmplitudeRatio is the fraction of the overall phase-mean average
// the amplitude must exceed for a pattern to count as present. Peak phases
// use half this ratio above the average.
const seasonalAmplitudeRatio = 0.10

// Seasonality describes a detected seasonal pattern.
type Seasonality struct {
	Present    bool      `json:"present"`
	Amplitude  float64   `json:"amplitude"`
	PhaseMeans []float64 `json:"phase_means"`
	PeakPhases []int     `json:"peak_phases"`
}

// SeasonalPattern computes per-phase means across all full cycles of xs and
// reports whether the phase amplitude (max minus min of the phase means)
// exceeds 10% of the overall phase-mean average. At least two full periods
// are required; shorter input yields no pattern.
func SeasonalPattern(xs []float64, period int) Seasonality {
	if period <= 0 || len(xs) < 2*period {
		return Seasonality{}
	}

	// Only full cycles contribute so every phase is averaged over the same
	// number of observations.
	cycles := len(xs) / period
	phaseMeans := make([]float64, period)
	for phase := 0; phase < period; phase++ {
		var sum float64
		for cycle := 0; cycle < cycles; cycle++ {
			sum += xs[cycle*period+phase]
		}
		phaseMeans[phase] = sum / float64(cycles)
	}

	minPhase, maxPhase := phaseMeans[0], phaseMeans[0]
	var total float64
	for _, m := range phaseMeans {
		total += m
		if m < minPhase {
			minPhase = m
		}
		if m > maxPhase {
			maxPhase = m
		}
	}
	average := total / float64(period)
	amplitude := maxPhase - minPhase

	result := Seasonality{
		Amplitude:  amplitude,
		PhaseMeans: phaseMeans,
		Present:    average > 0 && amplitude > seasonalAmplitudeRatio*average,
	}

	peakCutoff := average + (seasonalAmplitudeRatio/2)*average
	for phase, m := range phaseMeans {
		if m > peakCutoff {
			result.PeakPhases = append(result.PeakPhases, phase)
		}
	}

	return result
}
