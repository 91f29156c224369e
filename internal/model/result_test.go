package model

import (
	"testing"

	"github.com/mouse-blink/gorewrite/internal/lst"
	"github.com/stretchr/testify/assert"
)

func TestResult_Accessors(t *testing.T) {
	before := &lst.Tree{Path: "a.go"}
	after := &lst.Tree{Path: "a.go", EOF: "\n"}

	unchanged := Result{Unit: "a.go", Before: before}
	assert.False(t, unchanged.Changed())
	assert.False(t, unchanged.Failed())
	assert.Same(t, before, unchanged.Final())

	changed := Result{
		Unit:   "a.go",
		Before: before,
		After:  after,
		Change: ChangeDescription{
			Recipes:  []string{"gorewrite.UseAny"},
			Failures: []RecipeFailure{{RecipeID: "broken", Message: "boom"}},
		},
	}
	assert.True(t, changed.Changed())
	assert.True(t, changed.ChangedBy("gorewrite.UseAny"))
	assert.False(t, changed.ChangedBy("gorewrite.OrderImports"))
	assert.True(t, changed.Failed())
	assert.Same(t, after, changed.Final())
}

func TestNewReport_AndRunCount(t *testing.T) {
	changed := Result{Unit: "a.go", Round: 2, After: &lst.Tree{}, Change: ChangeDescription{Recipes: []string{"r"}, Diff: "d"}}
	unchanged := Result{Unit: "b.go", Round: 2}

	run := Run{Reports: []Report{NewReport(changed), NewReport(unchanged)}}

	assert.Equal(t, Report{Unit: "a.go", Round: 2, Changed: true, Recipes: []string{"r"}, Diff: "d"}, run.Reports[0])
	assert.Equal(t, 1, run.ChangedCount())
}
