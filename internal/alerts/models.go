// Package alerts evaluates dynamic-threshold rules over the aggregated daily
// series and emits a deduplicated, severity-ranked alert list. The engine is
// stateless: every evaluation is a pure function of the current snapshot, and
// alert lifecycle (acknowledge/resolve) belongs to external collaborators.
package alerts

import "time"

// Severity ranks an alert. Sorting is critical first.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// rank orders severities for sorting; lower sorts first.
func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	default:
		return 3
	}
}

// Direction is the comparison a rule applies against its threshold.
type Direction string

const (
	DirectionAbove Direction = "above"
	DirectionBelow Direction = "below"
)

// SeriesStats are the derived statistics of the recent daily series. They
// feed both the rule thresholds and the query response, so the caller can
// render the metrics that produced the alerts.
type SeriesStats struct {
	Latest       float64 `json:"latest"`
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"stddev"`
	AnomalyScore float64 `json:"anomaly_score"`
	GrowthRate   float64 `json:"growth_rate"`
	P5           float64 `json:"p5"`
	P95          float64 `json:"p95"`
	TotalCount   int     `json:"total_count"`
}

// Rule is a static alert definition. Value selects the observed metric from
// the derived statistics; Threshold derives the boundary from the same
// statistics, so rules adapt to the data instead of hard-coding constants.
type Rule struct {
	ID              string
	Name            string
	Metric          string
	Direction       Direction
	Severity        Severity
	Message         func(value, threshold float64) string
	Recommendations []string
	Value           func(SeriesStats) float64
	Threshold       func(SeriesStats) float64
}

// Alert is one triggered rule. Created fresh per evaluation, never persisted
// by this subsystem.
type Alert struct {
	ID              string    `json:"id"`
	RuleID          string    `json:"rule_id"`
	Metric          string    `json:"metric"`
	CurrentValue    float64   `json:"current_value"`
	Threshold       float64   `json:"threshold"`
	Severity        Severity  `json:"severity"`
	Message         string    `json:"message"`
	TriggeredAt     time.Time `json:"triggered_at"`
	State           string    `json:"state,omitempty"`
	Recommendations []string  `json:"recommendations"`
}
