package model

import "time"

// Report is the persisted form of a Result.
type Report struct {
	Unit     UnitID
	Round    int
	Changed  bool
	Recipes  []string
	Failures []RecipeFailure
	Skipped  []string
	Diff     string
}

// Run holds the reports of one invocation.
type Run struct {
	ID        string
	Mode      string
	StartedAt time.Time
	Reports   []Report
}

// NewReport converts a result into its persisted form.
func NewReport(result Result) Report {
	return Report{
		Unit:     result.Unit,
		Round:    result.Round,
		Changed:  result.Changed(),
		Recipes:  result.Change.Recipes,
		Failures: result.Change.Failures,
		Skipped:  result.Change.Skipped,
		Diff:     result.Change.Diff,
	}
}

// ChangedCount returns the number of reports that changed their unit.
func (r Run) ChangedCount() int {
	count := 0

	for _, report := range r.Reports {
		if report.Changed {
			count++
		}
	}

	return count
}
