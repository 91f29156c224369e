package controller

import (
	"time"

	m "github.com/mouse-blink/gorewrite/internal/model"
)

// Message types.
type tickMsg time.Time

type roundMsg struct {
	round     int
	processed int
	items     []resultItem
}

type runMsg struct {
	run m.Run
	err error
}

// List item types.
type resultItem struct {
	unit    string
	round   int
	status  string
	recipes string
	diff    string
}

func (r resultItem) FilterValue() string {
	return r.unit + " " + r.status + " " + r.recipes
}

// itemsFromReports keeps the reports worth browsing: those that changed
// their unit or recorded a failure.
func itemsFromReports(reports []m.Report) []resultItem {
	items := make([]resultItem, 0, len(reports))

	for _, report := range reports {
		status := reportStatus(report)
		if status == statusClean {
			continue
		}

		items = append(items, resultItem{
			unit:    string(report.Unit),
			round:   report.Round,
			status:  status,
			recipes: recipesSummary(report),
			diff:    report.Diff,
		})
	}

	return items
}

func newRoundMsg(round int, results []m.Result) roundMsg {
	reports := make([]m.Report, 0, len(results))
	for _, result := range results {
		reports = append(reports, m.NewReport(result))
	}

	return roundMsg{round: round, processed: len(results), items: itemsFromReports(reports)}
}
