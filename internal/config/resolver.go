package config

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mouse-blink/gorewrite/internal/domain"
	m "github.com/mouse-blink/gorewrite/internal/model"
	"github.com/mouse-blink/gorewrite/internal/recipe"
)

// Resolver turns a Config into the recipe set of an invocation. Script
// recipes from the recipes dir are loaded into a clone of the built-in
// registry, once per Resolver.
type Resolver struct {
	cfg    *Config
	base   *recipe.Registry
	logger *slog.Logger

	once sync.Once
	reg  *recipe.Registry
	err  error
}

var _ domain.Catalog = (*Resolver)(nil)

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithRegistry replaces the built-in registry the resolver starts from.
func WithRegistry(reg *recipe.Registry) ResolverOption {
	return func(r *Resolver) { r.base = reg }
}

// WithResolverLogger sets the logger.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a Resolver for cfg.
func NewResolver(cfg *Config, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		cfg:    cfg,
		base:   recipe.Default(),
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve returns the active recipes in configured order. It returns
// domain.ErrDisabled when rewriting is switched off; every other failure is
// a *domain.ConfigurationError.
func (r *Resolver) Resolve(_ context.Context) (recipe.Set, error) {
	if r.cfg.Disable {
		return recipe.Set{}, domain.ErrDisabled
	}

	reg, err := r.registry()
	if err != nil {
		return recipe.Set{}, err
	}

	set, err := reg.Resolve(r.cfg.ActiveRecipes)
	if err != nil {
		return recipe.Set{}, &domain.ConfigurationError{Err: err}
	}

	r.logger.Debug("active recipes", "recipes", set.IDs())

	return set, nil
}

// Recipes lists every recipe available to the invocation.
func (r *Resolver) Recipes(_ context.Context) ([]m.RecipeInfo, error) {
	reg, err := r.registry()
	if err != nil {
		return nil, err
	}

	all := reg.All()
	infos := make([]m.RecipeInfo, 0, len(all))

	for _, rec := range all {
		infos = append(infos, recipe.Info(rec))
	}

	return infos, nil
}

func (r *Resolver) registry() (*recipe.Registry, error) {
	r.once.Do(func() {
		reg := r.base.Clone()

		scripts, err := recipe.LoadDir(reg, r.cfg.RecipesDir)
		if err != nil {
			r.err = &domain.ConfigurationError{Err: err}
			return
		}

		if len(scripts) > 0 {
			r.logger.Debug("loaded script recipes", "dir", r.cfg.RecipesDir, "count", len(scripts))
		}

		r.reg = reg
	})

	return r.reg, r.err
}
