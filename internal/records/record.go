// Package records owns the enrolment record corpus: the row model, the
// flat-file source adapter, and the cache-first loader that publishes the
// in-memory snapshot consumed by the aggregation engine.
package records

import "time"

// DateLayout is the external day-month-year form used by the source files and
// the query interfaces. It is not lexicographically sortable, so dates are
// always compared as time.Time values.
const DateLayout = "02-01-2006"

// Record is one enrolment row. Records are immutable once loaded; the
// snapshot is replaced wholesale on reload.
type Record struct {
	Date     time.Time `json:"date"`
	State    string    `json:"state"`
	District string    `json:"district"`
	Pincode  string    `json:"pincode"`

	// Age brackets are mutually exclusive; Total is their sum.
	Age0to5   int `json:"age_0_5"`
	Age5to17  int `json:"age_5_17"`
	Age18Plus int `json:"age_18_plus"`
	Total     int `json:"total"`
}

// ParseDate parses the external DD-MM-YYYY form.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate renders a date in the external DD-MM-YYYY form.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
