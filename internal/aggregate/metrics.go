package aggregate

// BracketTotals breaks a count down by the three mutually exclusive age brackets.
type BracketTotals struct {
	Age0to5   int `json:"age_0_5"`
	Age5to17  int `json:"age_5_17"`
	Age18Plus int `json:"age_18_plus"`
}

// Sum returns the combined bracket count.
func (b BracketTotals) Sum() int {
	return b.Age0to5 + b.Age5to17 + b.Age18Plus
}

// Metrics is the grouped reduction of a (possibly filtered) record view.
// Invariant: TotalCount == ByBracket.Sum(), and the ByState values sum to
// TotalCount since brackets are never filtered independently.
type Metrics struct {
	TotalCount int            `json:"total_count"`
	ByState    map[string]int `json:"by_state"`
	// ByDistrict keys are "state|district" so same-named districts in
	// different states stay distinct.
	ByDistrict map[string]int `json:"by_district"`
	// ByDate keys use the external DD-MM-YYYY form. Iteration order is
	// meaningless; consumers re-sort by calendar value.
	ByDate    map[string]int `json:"by_date"`
	ByBracket BracketTotals  `json:"by_bracket"`
}

// StateCount is one entry of the "top states" derived view.
type StateCount struct {
	State string `json:"state"`
	Count int    `json:"count"`
}

// DatePoint is one entry of the daily-series derived view, date in the
// external DD-MM-YYYY form.
type DatePoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
