package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enrolytics/internal/aggregate"
)

// spikedStats mirrors a healthy corpus hovering around 1005/day with the
// last value spiked to 5000.
func spikedStats() SeriesStats {
	series := []float64{1000, 1020, 990, 1010, 1005, 1015, 995, 1000, 1010, 5000}
	points := make([]aggregate.DatePoint, len(series))
	for i, v := range series {
		points[i] = aggregate.DatePoint{Count: int(v)}
	}
	return deriveStats(points, 100000)
}

func TestEngineEvaluate(t *testing.T) {
	engine := NewEngine()
	now := time.Now()

	t.Run("5x spike fires the extreme rule without a duplicate high spike", func(t *testing.T) {
		alerts := engine.Evaluate(spikedStats(), "", now)
		require.NotEmpty(t, alerts)

		var daily []Alert
		for _, a := range alerts {
			if a.Metric == "daily_total" {
				daily = append(daily, a)
			}
		}
		require.Len(t, daily, 1, "only one daily_total alert may fire per direction")
		assert.Equal(t, "daily-extreme-spike", daily[0].RuleID)
		assert.Equal(t, SeverityCritical, daily[0].Severity)
		assert.Equal(t, 5000.0, daily[0].CurrentValue)
	})

	t.Run("spike also trips the anomaly and growth rules once each", func(t *testing.T) {
		alerts := engine.Evaluate(spikedStats(), "", now)

		byMetric := map[string][]Alert{}
		for _, a := range alerts {
			byMetric[a.Metric] = append(byMetric[a.Metric], a)
		}
		require.Len(t, byMetric["anomaly_score"], 1)
		require.Len(t, byMetric["growth_rate"], 1)
		assert.Equal(t, "growth-surge", byMetric["growth_rate"][0].RuleID,
			"the stronger growth rule must win the pair")
	})

	t.Run("sorted critical first", func(t *testing.T) {
		alerts := engine.Evaluate(spikedStats(), "", now)
		for i := 1; i < len(alerts); i++ {
			assert.LessOrEqual(t, alerts[i-1].Severity.rank(), alerts[i].Severity.rank())
		}
	})

	t.Run("healthy series triggers nothing", func(t *testing.T) {
		series := make([]aggregate.DatePoint, 30)
		for i := range series {
			series[i] = aggregate.DatePoint{Count: 1000 + (i%3)*10}
		}
		stats := deriveStats(series, 30000)
		assert.Empty(t, engine.Evaluate(stats, "", now))
	})

	t.Run("zero statistics skip every derived threshold", func(t *testing.T) {
		// All-zero variance with zero values: the data-derived thresholds
		// are non-positive and treated as not-yet-computable. Only the
		// absolute failure floor, a constant, can still page.
		alerts := engine.Evaluate(SeriesStats{}, "", now)
		require.Len(t, alerts, 1)
		assert.Equal(t, "daily-failure-floor", alerts[0].RuleID)
	})
}

func TestEngineDeduplication(t *testing.T) {
	now := time.Now()

	value := func(s SeriesStats) float64 { return s.Latest }
	threshold := func(s SeriesStats) float64 { return 10 }
	message := func(v, t float64) string { return "fired" }

	t.Run("first declared rule claims the metric-direction pair", func(t *testing.T) {
		engine := NewEngineWithRules([]Rule{
			{ID: "first", Metric: "m", Direction: DirectionAbove, Severity: SeverityHigh,
				Value: value, Threshold: threshold, Message: message},
			{ID: "second", Metric: "m", Direction: DirectionAbove, Severity: SeverityCritical,
				Value: value, Threshold: threshold, Message: message},
		})

		alerts := engine.Evaluate(SeriesStats{Latest: 50}, "", now)
		require.Len(t, alerts, 1)
		assert.Equal(t, "first", alerts[0].RuleID)
	})

	t.Run("opposite directions are independent pairs", func(t *testing.T) {
		engine := NewEngineWithRules([]Rule{
			{ID: "above", Metric: "m", Direction: DirectionAbove, Severity: SeverityHigh,
				Value: value, Threshold: func(SeriesStats) float64 { return 10 }, Message: message},
			{ID: "below", Metric: "m", Direction: DirectionBelow, Severity: SeverityHigh,
				Value: value, Threshold: func(SeriesStats) float64 { return 100 }, Message: message},
		})

		alerts := engine.Evaluate(SeriesStats{Latest: 50}, "", now)
		assert.Len(t, alerts, 2)
	})

	t.Run("non-firing earlier rule does not claim the pair", func(t *testing.T) {
		engine := NewEngineWithRules([]Rule{
			{ID: "strict", Metric: "m", Direction: DirectionAbove, Severity: SeverityCritical,
				Value: value, Threshold: func(SeriesStats) float64 { return 1000 }, Message: message},
			{ID: "loose", Metric: "m", Direction: DirectionAbove, Severity: SeverityHigh,
				Value: value, Threshold: func(SeriesStats) float64 { return 10 }, Message: message},
		})

		alerts := engine.Evaluate(SeriesStats{Latest: 50}, "", now)
		require.Len(t, alerts, 1)
		assert.Equal(t, "loose", alerts[0].RuleID)
	})

	t.Run("non-positive threshold never triggers", func(t *testing.T) {
		engine := NewEngineWithRules([]Rule{
			{ID: "degenerate", Metric: "m", Direction: DirectionAbove, Severity: SeverityCritical,
				Value: value, Threshold: func(SeriesStats) float64 { return 0 }, Message: message},
		})

		assert.Empty(t, engine.Evaluate(SeriesStats{Latest: 50}, "", now))
	})
}

func TestDeriveStats(t *testing.T) {
	t.Run("empty series yields zero stats", func(t *testing.T) {
		derived := deriveStats(nil, 0)
		assert.Zero(t, derived.Latest)
		assert.Zero(t, derived.Mean)
		assert.Zero(t, derived.AnomalyScore)
	})

	t.Run("spiked series produces an extreme z-score against the baseline", func(t *testing.T) {
		derived := spikedStats()
		assert.Equal(t, 5000.0, derived.Latest)
		assert.InDelta(t, 1005.0, derived.Mean, 0.5, "baseline mean must exclude the spike")
		assert.InDelta(t, 9.1, derived.StdDev, 0.5)
		assert.Greater(t, derived.AnomalyScore, 100.0)
		assert.InDelta(t, 395.0, derived.GrowthRate, 1.0)
		assert.Equal(t, 100000, derived.TotalCount)
	})

	t.Run("zero previous day leaves growth at zero", func(t *testing.T) {
		derived := deriveStats([]aggregate.DatePoint{{Count: 0}, {Count: 10}}, 10)
		assert.Zero(t, derived.GrowthRate)
	})
}
