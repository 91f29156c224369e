package controller

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/mouse-blink/gorewrite/internal/model"
)

func TestResultItem_FilterValue(t *testing.T) {
	item := resultItem{unit: "a.go", status: statusChanged, recipes: "gorewrite.UseAny"}
	got := item.FilterValue()

	for _, want := range []string{"a.go", "changed", "gorewrite.UseAny"} {
		assert.Contains(t, got, want)
	}
}

func TestItemsFromReports_SkipsCleanUnits(t *testing.T) {
	items := itemsFromReports(sampleReports())

	require.Len(t, items, 3)
	assert.Equal(t, "a.go", items[0].unit)
	assert.Equal(t, "c.go", items[1].unit)
	assert.Equal(t, statusPartial, items[2].status)
}

func TestAnimateScrollFileAndTruncateFile(t *testing.T) {
	assert.Equal(t, "", truncateFile("hello", 0))
	assert.Equal(t, "…", truncateFile("hello", 1))
	assert.Equal(t, "hello", truncateFile("hello", 10))

	assert.Equal(t, "ab…", animateScrollFile("abcdef", 3, 0))

	got := animateScrollFile("abcdef", 3, 10)
	assert.NotEqual(t, "ab…", got)
	assert.Len(t, []rune(got), 3)
}

func TestResultsModel_RoundsThenRun(t *testing.T) {
	model := newResultsModel(ModeRun)

	cmd := model.Init()
	require.NotNil(t, cmd)

	updated, _ := model.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	model = updated.(resultsModel)

	updated, _ = model.Update(roundMsg{round: 1, processed: 4, items: itemsFromReports(sampleReports())})
	model = updated.(resultsModel)

	assert.Equal(t, 1, model.rounds)
	assert.Equal(t, 4, model.processed)
	assert.Len(t, model.resultsList.Items(), 3)
	assert.Contains(t, model.View(), "Round:")

	updated, _ = model.Update(runMsg{run: m.Run{ID: "run-1", Reports: sampleReports()}})
	model = updated.(resultsModel)

	require.True(t, model.finished)
	assert.Equal(t, 4, model.processed)

	view := model.View()
	assert.Contains(t, view, "gorewrite results")
	assert.Contains(t, view, "run-1")
	assert.Contains(t, view, "a.go")
}

func TestResultsModel_ViewModeLoadsStoredRun(t *testing.T) {
	model := newResultsModel(ModeView)
	model = model.handleWindowSize(tea.WindowSizeMsg{Width: 100, Height: 30})
	model = model.handleRun(runMsg{run: m.Run{ID: "stored", Reports: sampleReports()}})

	assert.True(t, model.finished)
	assert.Equal(t, 4, model.processed)
	assert.Len(t, model.results, 3)
	assert.Equal(t, 1, model.countStatus(statusChanged))
	assert.Equal(t, 1, model.countStatus(statusFailed))
}

func TestResultsModel_ErrorView(t *testing.T) {
	model := newResultsModel(ModeRun)
	model = model.handleWindowSize(tea.WindowSizeMsg{Width: 80, Height: 24})
	model = model.handleRun(runMsg{err: errors.New("configuration: bad recipe")})

	assert.Contains(t, model.View(), "error: configuration: bad recipe")
}

func TestResultsModel_KeysAndDiff(t *testing.T) {
	model := newResultsModel(ModeView)
	model = model.handleWindowSize(tea.WindowSizeMsg{Width: 100, Height: 40})
	model = model.handleRun(runMsg{run: m.Run{Reports: []m.Report{
		{Unit: "a.go", Round: 1, Changed: true, Diff: "--- a/a.go\n+++ b/a.go\n@@ -1 +1 @@\n-x\n+y\n"},
		{Unit: "b.go", Round: 1, Changed: true, Diff: "--- a/b.go\n+++ b/b.go\n"},
	}}})

	updated, _ := model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, updated.showDiff)
	assert.Equal(t, "a.go", updated.selectedDiffPath)
	assert.Contains(t, updated.View(), "Diff • a.go")
	assert.Greater(t, updated.diffBoxHeight(), 0)

	updated, _ = updated.handleKeyMsg(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, updated.showDiff)

	updated, _ = updated.handleKeyMsg(tea.KeyMsg{Type: tea.KeyEnter})
	updated, _ = updated.handleKeyMsg(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, updated.lastSelected)
	assert.False(t, updated.showDiff)

	_, cmd := updated.handleKeyMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.NotNil(t, cmd)
}

func TestResultsModel_KeysIgnoredWhileRunning(t *testing.T) {
	model := newResultsModel(ModeRun)

	_, cmd := model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Nil(t, cmd)

	updated, _ := model.handleMouseMsg(tea.MouseMsg{Button: tea.MouseButtonLeft, Action: tea.MouseActionRelease})
	assert.False(t, updated.showDiff)
}

func TestResultsModel_Tick(t *testing.T) {
	model := newResultsModel(ModeView)
	model.finished = true

	updated, cmd := model.handleTickMsg(tickMsg(time.Now()))
	assert.NotNil(t, cmd)
	assert.Equal(t, 1, updated.animOffset)

	updated.finished = false
	again, _ := updated.handleTickMsg(tickMsg(time.Now()))
	assert.Equal(t, 1, again.animOffset)
}

func TestResultDelegate_Render(t *testing.T) {
	items := []list.Item{
		resultItem{unit: "pkg/a.go", round: 2, status: statusChanged},
		resultItem{unit: "pkg/b.go", round: 2, status: statusFailed},
	}
	l := list.New(items, resultDelegate{}, 80, 10)

	var b strings.Builder
	resultDelegate{}.Render(&b, l, 1, items[1])

	assert.Contains(t, b.String(), "pkg/b.go")
	assert.Contains(t, b.String(), "failed")
}

func TestRenderDiffLine(t *testing.T) {
	for _, line := range []string{"+++ b/a.go", "--- a/a.go", "@@ -1 +1 @@", "+x", "-y", " ctx", ""} {
		assert.Contains(t, renderDiffLine(line, 40), strings.TrimSpace(line))
	}
}

func TestRenderRecipes(t *testing.T) {
	out := renderRecipes([]m.RecipeInfo{{ID: "gorewrite.UseAny", Description: "Replace interface{} with any"}})

	assert.Contains(t, out, "gorewrite.UseAny")
	assert.Contains(t, out, "Replace interface{} with any")
	assert.Equal(t, "No recipes registered\n", renderRecipes(nil))
}
