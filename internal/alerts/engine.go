package alerts

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Engine evaluates the fixed rule list against derived series statistics.
type Engine struct {
	rules []Rule
}

// NewEngine constructs the evaluator with the default rule set.
func NewEngine() *Engine {
	return &Engine{rules: defaultRules()}
}

// NewEngineWithRules constructs an evaluator over a custom rule list,
// preserving declaration-order precedence. Used by tests.
func NewEngineWithRules(rules []Rule) *Engine {
	return &Engine{rules: rules}
}

// Evaluate runs every rule against the statistics and returns the triggered
// alerts sorted critical first. At most one alert fires per
// (metric, direction) pair; the first firing rule in declaration order claims
// the pair and suppresses later rules targeting it. A threshold of zero or
// below means "not yet computable" and never triggers, which also guards the
// degenerate all-zero-variance series.
func (e *Engine) Evaluate(s SeriesStats, state string, now time.Time) []Alert {
	claimed := make(map[string]struct{})
	var triggered []Alert

	for _, rule := range e.rules {
		threshold := rule.Threshold(s)
		if threshold <= 0 {
			continue
		}

		value := rule.Value(s)
		fired := false
		switch rule.Direction {
		case DirectionAbove:
			fired = value > threshold
		case DirectionBelow:
			fired = value < threshold
		}
		if !fired {
			continue
		}

		pair := rule.Metric + "|" + string(rule.Direction)
		if _, taken := claimed[pair]; taken {
			continue
		}
		claimed[pair] = struct{}{}

		triggered = append(triggered, Alert{
			ID:              uuid.NewString(),
			RuleID:          rule.ID,
			Metric:          rule.Metric,
			CurrentValue:    value,
			Threshold:       threshold,
			Severity:        rule.Severity,
			Message:         rule.Message(value, threshold),
			TriggeredAt:     now,
			State:           state,
			Recommendations: rule.Recommendations,
		})
	}

	sort.SliceStable(triggered, func(i, j int) bool {
		return triggered[i].Severity.rank() < triggered[j].Severity.rank()
	})
	return triggered
}
