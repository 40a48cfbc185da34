package alerts

import (
	"fmt"
	"math"

	"enrolytics/internal/stats"
)

// absoluteFailureFloor is the lowest daily total below which ingestion is
// assumed broken regardless of what the percentiles say.
const absoluteFailureFloor = 100

// Rule declaration order is load-bearing: the evaluator lets the first firing
// rule claim its (metric, direction) pair, so within a pair the most severe
// rule must come first.
func defaultRules() []Rule {
	return []Rule{
		{
			ID:        "daily-extreme-spike",
			Name:      "Extreme enrolment spike",
			Metric:    "daily_total",
			Direction: DirectionAbove,
			Severity:  SeverityCritical,
			Message: func(v, t float64) string {
				return fmt.Sprintf("daily enrolment total %.0f exceeds the extreme spike threshold %.0f", v, t)
			},
			Recommendations: []string{
				"verify upstream ingestion for duplicated batches",
				"check whether an enrolment drive explains the surge",
				"review operator capacity in the affected region",
			},
			Value: func(s SeriesStats) float64 { return s.Latest },
			Threshold: func(s SeriesStats) float64 {
				return math.Max(s.P95, s.Mean+3*s.StdDev)
			},
		},
		{
			ID:        "daily-high-spike",
			Name:      "High enrolment spike",
			Metric:    "daily_total",
			Direction: DirectionAbove,
			Severity:  SeverityHigh,
			Message: func(v, t float64) string {
				return fmt.Sprintf("daily enrolment total %.0f exceeds the high spike threshold %.0f", v, t)
			},
			Recommendations: []string{
				"compare against the same weekday in previous weeks",
				"confirm no backlog flush occurred upstream",
			},
			Value: func(s SeriesStats) float64 { return s.Latest },
			Threshold: func(s SeriesStats) float64 {
				return math.Max(s.Mean+2*s.StdDev, s.P95*0.8)
			},
		},
		{
			ID:        "daily-failure-floor",
			Name:      "Enrolment pipeline failure",
			Metric:    "daily_total",
			Direction: DirectionBelow,
			Severity:  SeverityCritical,
			Message: func(v, t float64) string {
				return fmt.Sprintf("daily enrolment total %.0f fell below the failure floor %.0f", v, t)
			},
			Recommendations: []string{
				"check source file delivery and ingestion jobs",
				"verify enrolment centres reported at all",
			},
			Value: func(s SeriesStats) float64 { return s.Latest },
			Threshold: func(s SeriesStats) float64 {
				return math.Max(absoluteFailureFloor, s.P5*0.1)
			},
		},
		{
			ID:        "daily-low-warning",
			Name:      "Low enrolment volume",
			Metric:    "daily_total",
			Direction: DirectionBelow,
			Severity:  SeverityMedium,
			Message: func(v, t float64) string {
				return fmt.Sprintf("daily enrolment total %.0f is below the low-volume threshold %.0f", v, t)
			},
			Recommendations: []string{
				"review regional holidays or outages",
				"watch the next cycles before escalating",
			},
			Value: func(s SeriesStats) float64 { return s.Latest },
			Threshold: func(s SeriesStats) float64 {
				return math.Min(s.P5, s.Mean-2*s.StdDev)
			},
		},
		{
			ID:        "statistical-anomaly",
			Name:      "Statistical anomaly",
			Metric:    "anomaly_score",
			Direction: DirectionAbove,
			Severity:  SeverityHigh,
			Message: func(v, t float64) string {
				return fmt.Sprintf("latest daily total deviates %.1f standard deviations from the mean (threshold %.1f)", v, t)
			},
			Recommendations: []string{
				"inspect the raw rows behind the latest day",
				"correlate with other regions for systemic shifts",
			},
			Value:     func(s SeriesStats) float64 { return math.Abs(s.AnomalyScore) },
			Threshold: func(s SeriesStats) float64 { return stats.DefaultZThreshold },
		},
		{
			ID:        "growth-surge",
			Name:      "Day-over-day surge",
			Metric:    "growth_rate",
			Direction: DirectionAbove,
			Severity:  SeverityHigh,
			Message: func(v, t float64) string {
				return fmt.Sprintf("day-over-day change of %.0f%% exceeds %.0f%%", v, t)
			},
			Recommendations: []string{
				"confirm the previous day was not underreported",
			},
			Value:     func(s SeriesStats) float64 { return math.Abs(s.GrowthRate) },
			Threshold: func(s SeriesStats) float64 { return 100 },
		},
		{
			ID:        "growth-shift",
			Name:      "Day-over-day shift",
			Metric:    "growth_rate",
			Direction: DirectionAbove,
			Severity:  SeverityMedium,
			Message: func(v, t float64) string {
				return fmt.Sprintf("day-over-day change of %.0f%% exceeds %.0f%%", v, t)
			},
			Recommendations: []string{
				"keep the series under observation",
			},
			Value:     func(s SeriesStats) float64 { return math.Abs(s.GrowthRate) },
			Threshold: func(s SeriesStats) float64 { return 50 },
		},
	}
}
