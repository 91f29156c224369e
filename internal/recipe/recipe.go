// Package recipe defines source transformation recipes and the registry that
// resolves recipe identifiers into an ordered recipe set.
//
// Built-in recipes register themselves with the default registry from init
// functions. Per-invocation recipes (starlark scripts) are added to a clone of
// the default registry so separate invocations never see each other's recipes.
package recipe

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mouse-blink/gorewrite/internal/lst"
	m "github.com/mouse-blink/gorewrite/internal/model"
)

// ErrUnknownRecipe is returned when an identifier does not name a registered recipe.
var ErrUnknownRecipe = errors.New("unknown recipe")

// Recipe is a named source transformation. Visit receives a private copy of
// the tree and edits it in place; returning an error discards the edits.
type Recipe interface {
	ID() string
	DisplayName() string
	Description() string
	Visit(tree *lst.Tree) error
}

// VisitFunc edits a tree in place.
type VisitFunc func(tree *lst.Tree) error

// Definition is a data-driven recipe.
type Definition struct {
	Name    string
	Display string
	About   string
	Apply   VisitFunc
}

// ID returns the recipe identifier.
func (d Definition) ID() string { return d.Name }

// DisplayName returns a short human readable name.
func (d Definition) DisplayName() string { return d.Display }

// Description returns what the recipe does.
func (d Definition) Description() string { return d.About }

// Visit applies the recipe.
func (d Definition) Visit(tree *lst.Tree) error {
	if d.Apply == nil {
		return nil
	}

	return d.Apply(tree)
}

// Info returns the listing metadata of r.
func Info(r Recipe) m.RecipeInfo {
	return m.RecipeInfo{ID: r.ID(), DisplayName: r.DisplayName(), Description: r.Description()}
}

// Set is an ordered, immutable sequence of recipes.
type Set struct {
	recipes []Recipe
}

// NewSet builds a set from recipes in the given order.
func NewSet(recipes ...Recipe) Set {
	return Set{recipes: append([]Recipe(nil), recipes...)}
}

// Recipes returns the recipes in order.
func (s Set) Recipes() []Recipe {
	return append([]Recipe(nil), s.recipes...)
}

// IDs returns the recipe identifiers in order.
func (s Set) IDs() []string {
	ids := make([]string, len(s.recipes))
	for i, r := range s.recipes {
		ids[i] = r.ID()
	}

	return ids
}

// Len returns the number of recipes.
func (s Set) Len() int {
	return len(s.recipes)
}

// Registry stores recipes by identifier.
type Registry struct {
	mu      sync.RWMutex
	recipes map[string]Recipe
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{recipes: make(map[string]Recipe)}
}

var defaultRegistry = NewRegistry()

// Default returns the registry built-in recipes register with.
func Default() *Registry {
	return defaultRegistry
}

// Register adds r to the default registry. It panics on duplicates, since it
// is meant to be called from init functions.
func Register(r Recipe) {
	if err := defaultRegistry.Register(r); err != nil {
		panic(err)
	}
}

// Register adds r to the registry.
func (reg *Registry) Register(r Recipe) error {
	id := r.ID()
	if strings.TrimSpace(id) == "" {
		return errors.New("recipe id must not be empty")
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, exists := reg.recipes[id]; exists {
		return fmt.Errorf("recipe %q already registered", id)
	}

	reg.recipes[id] = r

	return nil
}

// Lookup returns the recipe registered under id.
func (reg *Registry) Lookup(id string) (Recipe, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	r, ok := reg.recipes[id]

	return r, ok
}

// All returns every registered recipe sorted by identifier.
func (reg *Registry) All() []Recipe {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	recipes := make([]Recipe, 0, len(reg.recipes))
	for _, r := range reg.recipes {
		recipes = append(recipes, r)
	}

	sort.Slice(recipes, func(i, j int) bool { return recipes[i].ID() < recipes[j].ID() })

	return recipes
}

// Clone returns a registry holding the same recipes.
func (reg *Registry) Clone() *Registry {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	clone := NewRegistry()
	for id, r := range reg.recipes {
		clone.recipes[id] = r
	}

	return clone
}

// Resolve turns identifiers into a set, keeping the given order. Blank
// identifiers are ignored and repeated ones keep their first position.
func (reg *Registry) Resolve(ids []string) (Set, error) {
	seen := make(map[string]struct{}, len(ids))
	recipes := make([]Recipe, 0, len(ids))

	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}

		if _, dup := seen[id]; dup {
			continue
		}

		seen[id] = struct{}{}

		r, ok := reg.Lookup(id)
		if !ok {
			return Set{}, fmt.Errorf("%w: %s", ErrUnknownRecipe, id)
		}

		recipes = append(recipes, r)
	}

	return NewSet(recipes...), nil
}
