package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	m "github.com/mouse-blink/gorewrite/internal/model"
	"github.com/mouse-blink/gorewrite/internal/recipe"
)

// State is the lifecycle state of a Controller.
type State int

// Controller states.
const (
	Uninitialized State = iota
	Active
	Finalized
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Active:
		return "active"
	case Finalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// Resolver produces the recipe set for an invocation. It is called once, on
// the first round. Returning ErrDisabled turns the invocation into a no-op.
type Resolver interface {
	Resolve(ctx context.Context) (recipe.Set, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context) (recipe.Set, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context) (recipe.Set, error) {
	return f(ctx)
}

// StaticResolver resolves to a fixed set.
func StaticResolver(set recipe.Set) Resolver {
	return ResolverFunc(func(context.Context) (recipe.Set, error) { return set, nil })
}

// RoundSource supplies processing rounds. Next returns io.EOF when the host
// has no further rounds.
type RoundSource interface {
	Next(ctx context.Context) (m.Round, error)
}

// RoundHook is called after each processed round with the results it added.
// On the final round the controller is already finalized when hooks run.
type RoundHook func(round m.Round, results []m.Result)

// SkipHook is called for every unit the bridge could not convert. The unit is
// absent from the ledger.
type SkipHook func(unit m.UnitID, round int, err error)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBridge replaces the tree bridge.
func WithBridge(b Bridge) Option {
	return func(c *Controller) { c.bridge = b }
}

// WithRoundHook registers a hook called after every processed round.
func WithRoundHook(hook RoundHook) Option {
	return func(c *Controller) { c.hooks = append(c.hooks, hook) }
}

// WithSkipHook registers a hook called for every unit that failed to convert.
func WithSkipHook(hook SkipHook) Option {
	return func(c *Controller) { c.skipHooks = append(c.skipHooks, hook) }
}

// Controller drives one invocation: it resolves the recipe set on the first
// round, converts and transforms the units of every round, and records the
// results in its ledger until the host signals the final round.
type Controller struct {
	mu        sync.Mutex
	state     State
	resolver  Resolver
	set       recipe.Set
	collector *Collector
	bridge    Bridge
	runner    Runner
	ledger    *Ledger
	logger    *slog.Logger
	hooks     []RoundHook
	skipHooks []SkipHook
}

type skippedUnit struct {
	unit m.UnitID
	err  error
}

// NewController creates a controller in the Uninitialized state.
func NewController(resolver Resolver, opts ...Option) *Controller {
	c := &Controller{
		resolver:  resolver,
		collector: NewCollector(),
		bridge:    NewBridge(),
		ledger:    NewLedger(),
		logger:    discardLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.runner = NewRunner(c.logger)

	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Ledger returns the controller's ledger.
func (c *Controller) Ledger() *Ledger {
	return c.ledger
}

// RecipeSet returns the resolved recipe set. It is empty before the first round.
func (c *Controller) RecipeSet() recipe.Set {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.set
}

// ProcessRound handles one host round. The first call resolves the recipe
// set; a resolver failure finalizes the controller and is returned as a
// *ConfigurationError. Units that fail to convert are logged and skipped.
// Round hooks run once the round is recorded, outside the controller's lock,
// so they may call back into the controller.
func (c *Controller) ProcessRound(ctx context.Context, round m.Round) error {
	added, skipped, ran, err := c.processRound(ctx, round)
	if err != nil || !ran {
		return err
	}

	for _, skip := range skipped {
		for _, hook := range c.skipHooks {
			hook(skip.unit, round.Number, skip.err)
		}
	}

	for _, hook := range c.hooks {
		hook(round, added)
	}

	return nil
}

// processRound records the round and reports whether it was processed.
func (c *Controller) processRound(ctx context.Context, round m.Round) ([]m.Result, []skippedUnit, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Finalized:
		return nil, nil, false, ErrFinalized
	case Uninitialized:
		if err := c.initialize(ctx); err != nil {
			return nil, nil, false, err
		}

		if c.state == Finalized {
			return nil, nil, false, nil
		}
	case Active:
	}

	var (
		added   []m.Result
		skipped []skippedUnit
	)

	for _, unit := range c.collector.UnitsForRound(round) {
		if err := ctx.Err(); err != nil {
			c.finalize()
			return nil, nil, false, err
		}

		tree, err := c.bridge.Convert(unit)
		if err != nil {
			c.logger.Warn("skipping unit", "unit", unit.ID, "round", round.Number, "error", err)
			skipped = append(skipped, skippedUnit{unit: unit.ID, err: err})

			continue
		}

		result := c.runner.Run(c.set, unit.ID, round.Number, tree)
		if err := c.ledger.Append(result); err != nil {
			return nil, nil, false, err
		}

		c.logger.Debug("unit processed",
			"unit", unit.ID, "round", round.Number,
			"changed", result.Changed(), "failures", len(result.Change.Failures))

		added = append(added, result)
	}

	if round.Final {
		c.finalize()
	}

	return added, skipped, true, nil
}

func (c *Controller) initialize(ctx context.Context) error {
	set, err := c.resolver.Resolve(ctx)
	if errors.Is(err, ErrDisabled) {
		c.logger.Info("rewriting disabled")
		c.finalize()

		return nil
	}

	if err != nil {
		c.finalize()

		var cfgErr *ConfigurationError
		if errors.As(err, &cfgErr) {
			return cfgErr
		}

		return &ConfigurationError{Err: err}
	}

	c.set = set
	c.state = Active
	c.logger.Debug("recipe set resolved", "recipes", set.IDs())

	return nil
}

func (c *Controller) finalize() {
	c.state = Finalized
	c.ledger.Seal()
	c.collector.Reset()
}

// Finalize ends the invocation without a final round. It is a no-op when the
// controller is already finalized.
func (c *Controller) Finalize() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.finalize()
}

// Run pulls rounds from source until the final round, the end of the source
// or the cancellation of ctx, and returns the sealed ledger. Cancellation keeps
// the results recorded so far.
func (c *Controller) Run(ctx context.Context, source RoundSource) (*Ledger, error) {
	for {
		if c.State() == Finalized {
			return c.ledger, nil
		}

		round, err := source.Next(ctx)
		if err != nil {
			c.Finalize()

			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return c.ledger, nil
			}

			return c.ledger, err
		}

		if err := c.ProcessRound(ctx, round); err != nil {
			c.Finalize()

			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return c.ledger, nil
			}

			return c.ledger, err
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
