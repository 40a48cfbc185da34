package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeasonalPattern(t *testing.T) {
	t.Run("requires two full periods", func(t *testing.T) {
		short := make([]float64, 2*DefaultSeasonalPeriod-1)
		assert.False(t, SeasonalPattern(short, DefaultSeasonalPeriod).Present)
	})

	t.Run("flat series has no pattern", func(t *testing.T) {
		flat := make([]float64, 3*DefaultSeasonalPeriod)
		for i := range flat {
			flat[i] = 100
		}
		result := SeasonalPattern(flat, DefaultSeasonalPeriod)
		assert.False(t, result.Present)
		assert.Zero(t, result.Amplitude)
		assert.Empty(t, result.PeakPhases)
	})

	t.Run("detects a recurring peak phase", func(t *testing.T) {
		// Two full years of monthly data with a strong March every year.
		var xs []float64
		for cycle := 0; cycle < 2; cycle++ {
			for phase := 0; phase < DefaultSeasonalPeriod; phase++ {
				if phase == 2 {
					xs = append(xs, 300)
					continue
				}
				xs = append(xs, 100)
			}
		}

		result := SeasonalPattern(xs, DefaultSeasonalPeriod)
		assert.True(t, result.Present)
		assert.InDelta(t, 200.0, result.Amplitude, 1e-9)
		require.Len(t, result.PhaseMeans, DefaultSeasonalPeriod)
		assert.Equal(t, []int{2}, result.PeakPhases)
	})

	t.Run("partial trailing cycle is ignored", func(t *testing.T) {
		// Same series plus a huge half-cycle that must not skew phase means.
		var xs []float64
		for cycle := 0; cycle < 2; cycle++ {
			for phase := 0; phase < 4; phase++ {
				xs = append(xs, float64(100+phase))
			}
		}
		withTail := append(append([]float64{}, xs...), 10000, 10000)

		assert.Equal(t, SeasonalPattern(xs, 4).PhaseMeans, SeasonalPattern(withTail, 4).PhaseMeans)
	})
}
