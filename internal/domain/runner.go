package domain

import (
	"fmt"
	"log/slog"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/mouse-blink/gorewrite/internal/lst"
	m "github.com/mouse-blink/gorewrite/internal/model"
	"github.com/mouse-blink/gorewrite/internal/recipe"
)

// Runner applies a recipe set to a tree.
type Runner interface {
	Run(set recipe.Set, unit m.UnitID, round int, tree *lst.Tree) m.Result
}

type runner struct {
	logger *slog.Logger
}

// NewRunner creates a Runner that logs recipe failures to logger.
func NewRunner(logger *slog.Logger) Runner {
	if logger == nil {
		logger = discardLogger()
	}

	return &runner{logger: logger}
}

// Run applies the recipes in set order. Every recipe works on a copy of the
// tree produced by the recipes before it; a recipe that fails has its copy
// discarded and is listed in the result's failures. Before is never modified.
func (r *runner) Run(set recipe.Set, unit m.UnitID, round int, tree *lst.Tree) m.Result {
	result := m.Result{Unit: unit, Round: round, Before: tree}
	current := tree

	for _, rcp := range set.Recipes() {
		if tree.Ignore.Ignores(rcp.ID()) {
			result.Change.Skipped = append(result.Change.Skipped, rcp.ID())
			continue
		}

		next := current.Clone()

		if err := visit(rcp, unit, next); err != nil {
			r.logger.Warn("recipe failed", "recipe", rcp.ID(), "unit", unit, "error", err)
			result.Change.Failures = append(result.Change.Failures, m.RecipeFailure{
				RecipeID: rcp.ID(),
				Message:  err.Error(),
			})

			continue
		}

		if next.Equal(current) {
			continue
		}

		result.Change.Recipes = append(result.Change.Recipes, rcp.ID())
		current = next
	}

	if current != tree {
		result.After = current
		result.Change.Diff = unifiedDiff(tree, current)
	}

	return result
}

func visit(rcp recipe.Recipe, unit m.UnitID, tree *lst.Tree) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &RecipeExecutionError{RecipeID: rcp.ID(), Unit: unit, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	if visitErr := rcp.Visit(tree); visitErr != nil {
		return &RecipeExecutionError{RecipeID: rcp.ID(), Unit: unit, Err: visitErr}
	}

	return nil
}

func unifiedDiff(before, after *lst.Tree) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before.String()),
		B:        difflib.SplitLines(after.String()),
		FromFile: "a/" + before.Path,
		ToFile:   "b/" + after.Path,
		Context:  3,
	})
	if err != nil {
		return ""
	}

	return diff
}
