package aggregate

import (
	"fmt"
	"time"

	"enrolytics/internal/records"
)

// Filter restricts an aggregation to a state, district, and inclusive date
// range. Zero values mean "no restriction".
type Filter struct {
	State    string
	District string
	From     time.Time
	To       time.Time
}

// CacheKey derives the deterministic cache key for this filter. Field order
// is fixed so identical logical queries always hit the same entry.
func (f Filter) CacheKey() string {
	from, to := "", ""
	if !f.From.IsZero() {
		from = records.FormatDate(f.From)
	}
	if !f.To.IsZero() {
		to = records.FormatDate(f.To)
	}
	return fmt.Sprintf("agg:v1:state=%s|district=%s|from=%s|to=%s", f.State, f.District, from, to)
}

// Matches reports whether a record passes the filter. Predicates run in
// fixed order: state, district, start date, end date. Dates are compared by
// calendar value since the external form is not lexicographically sortable.
func (f Filter) Matches(r records.Record) bool {
	if f.State != "" && r.State != f.State {
		return false
	}
	if f.District != "" && r.District != f.District {
		return false
	}
	if !f.From.IsZero() && r.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.Date.After(f.To) {
		return false
	}
	return true
}
