package controller

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "github.com/mouse-blink/gorewrite/internal/model"
)

// SimpleUI implements UI using cobra Command's output.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(_ ...StartOption) error {
	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close() {}

// Wait returns immediately; there is nothing to close.
func (s *SimpleUI) Wait() {}

// DisplayRecipes prints the registered recipes as a table.
func (s *SimpleUI) DisplayRecipes(recipes []m.RecipeInfo) error {
	if len(recipes) == 0 {
		s.printf("No recipes registered\n")
		return nil
	}

	var tableBuffer bytes.Buffer

	table := newTable(&tableBuffer, []string{"ID", "Name", "Description"})
	for _, info := range recipes {
		table.Append([]string{info.ID, info.DisplayName, info.Description})
	}

	table.Render()
	s.printf("\n%s", tableBuffer.String())

	return nil
}

// DisplayRoundResults prints one line per changed or failed unit.
func (s *SimpleUI) DisplayRoundResults(round int, results []m.Result) {
	for _, result := range results {
		report := m.NewReport(result)

		status := reportStatus(report)
		if status == statusClean {
			continue
		}

		s.printf("round %d: %-8s %s %s\n", round, status, result.Unit, recipesSummary(report))

		for _, failure := range result.Change.Failures {
			s.printf("  %s: %s\n", failure.RecipeID, failure.Message)
		}
	}
}

// DisplayRun prints the reports of a run as a table, or the error.
func (s *SimpleUI) DisplayRun(run m.Run, err error) error {
	if err != nil {
		s.printf("run error: %v\n", err)
		return err
	}

	var tableBuffer bytes.Buffer

	table := newTable(&tableBuffer, []string{"Unit", "Round", "Status", "Recipes"})
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
	})

	failed := 0

	for _, report := range run.Reports {
		status := reportStatus(report)
		if status == statusFailed || status == statusPartial {
			failed++
		}

		table.Append([]string{string(report.Unit), fmt.Sprintf("%d", report.Round), status, recipesSummary(report)})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Units %d", len(run.Reports)),
		"",
		fmt.Sprintf("Changed %d", run.ChangedCount()),
		fmt.Sprintf("Failed %d", failed),
	})

	table.Render()
	s.printf("\n%s", tableBuffer.String())

	return nil
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

func newTable(buf *bytes.Buffer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(buf)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	return table
}

// Report statuses shown by every UI.
const (
	statusClean   = "clean"
	statusChanged = "changed"
	statusFailed  = "failed"
	statusPartial = "partial"
)

func reportStatus(report m.Report) string {
	switch {
	case report.Changed && len(report.Failures) > 0:
		return statusPartial
	case report.Changed:
		return statusChanged
	case len(report.Failures) > 0:
		return statusFailed
	default:
		return statusClean
	}
}

func recipesSummary(report m.Report) string {
	parts := make([]string, 0, len(report.Recipes)+len(report.Failures))
	parts = append(parts, report.Recipes...)

	for _, failure := range report.Failures {
		parts = append(parts, "!"+failure.RecipeID)
	}

	return strings.Join(parts, ", ")
}
