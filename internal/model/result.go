package model

import (
	"slices"

	"github.com/mouse-blink/gorewrite/internal/lst"
)

// RecipeFailure marks a recipe that failed on one unit. The changes the
// recipe attempted are discarded.
type RecipeFailure struct {
	RecipeID string `json:"recipe"`
	Message  string `json:"message"`
}

// ChangeDescription tells which recipes changed a unit and how.
type ChangeDescription struct {
	// Recipes lists the recipes that changed the tree, in execution order.
	Recipes []string `json:"recipes,omitempty"`
	// Failures lists recipes that failed, in execution order.
	Failures []RecipeFailure `json:"failures,omitempty"`
	// Skipped lists recipes the unit opted out of via an ignore directive.
	Skipped []string `json:"skipped,omitempty"`
	// Diff is a unified diff from the before to the after tree.
	Diff string `json:"diff,omitempty"`
}

// Result is the outcome of running the recipe set over one unit in one round.
type Result struct {
	Unit   UnitID
	Round  int
	Before *lst.Tree
	// After is nil when no recipe changed the unit.
	After  *lst.Tree
	Change ChangeDescription
}

// Changed reports whether any recipe changed the unit.
func (r Result) Changed() bool {
	return r.After != nil
}

// ChangedBy reports whether the recipe with the given id changed the unit.
func (r Result) ChangedBy(recipeID string) bool {
	return slices.Contains(r.Change.Recipes, recipeID)
}

// Failed reports whether at least one recipe failed on the unit.
func (r Result) Failed() bool {
	return len(r.Change.Failures) > 0
}

// Final returns the tree that reflects the result: After when the unit
// changed, Before otherwise.
func (r Result) Final() *lst.Tree {
	if r.After != nil {
		return r.After
	}

	return r.Before
}
