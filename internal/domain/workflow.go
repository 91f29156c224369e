package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mouse-blink/gorewrite/internal/adapter"
	"github.com/mouse-blink/gorewrite/internal/controller"
	m "github.com/mouse-blink/gorewrite/internal/model"
)

// Mode is the persistence policy of a run.
type Mode string

// Run modes.
const (
	// ModeReport records results and writes the patch file.
	ModeReport Mode = "report"
	// ModeWrite writes the rewritten files in place.
	ModeWrite Mode = "write"
	// ModeCheck is ModeReport that fails with ErrChangesFound when a unit changed.
	ModeCheck Mode = "check"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch mode := Mode(s); mode {
	case ModeReport, ModeWrite, ModeCheck:
		return mode, nil
	case "":
		return ModeReport, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

// RunArgs describes one rewrite run.
type RunArgs struct {
	Dir       string
	Patterns  []string
	Mode      Mode
	Watch     bool
	Tests     bool
	PatchPath m.Path
}

// Catalog resolves the recipe set of a run and lists the recipes available.
type Catalog interface {
	Resolver
	Recipes(ctx context.Context) ([]m.RecipeInfo, error)
}

// SourceFactory creates the host round source for a run.
type SourceFactory func(ctx context.Context, args RunArgs) (RoundSource, error)

// Workflow wires the host, the controller, persistence and the UI.
type Workflow interface {
	Run(ctx context.Context, args RunArgs) (m.Run, error)
	List(ctx context.Context) error
	View(ctx context.Context) error
}

// WorkflowOption configures a workflow.
type WorkflowOption func(*workflow)

// WithWorkflowLogger sets the logger handed to the controller.
func WithWorkflowLogger(logger *slog.Logger) WorkflowOption {
	return func(w *workflow) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithClock sets the time source used to stamp runs.
func WithClock(now func() time.Time) WorkflowOption {
	return func(w *workflow) { w.now = now }
}

type workflow struct {
	fsAdapter adapter.SourceFSAdapter
	store     adapter.ReportStore
	ui        controller.UI
	catalog   Catalog
	sources   SourceFactory
	logger    *slog.Logger
	now       func() time.Time
}

// NewWorkflow creates a new Workflow instance with the provided adapters.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	store adapter.ReportStore,
	ui controller.UI,
	catalog Catalog,
	sources SourceFactory,
	opts ...WorkflowOption,
) Workflow {
	w := &workflow{
		fsAdapter: fsAdapter,
		store:     store,
		ui:        ui,
		catalog:   catalog,
		sources:   sources,
		logger:    discardLogger(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// PackagesSourceFactory loads rounds through go/packages, watching for
// changes when the run asks for it.
func PackagesSourceFactory(logger *slog.Logger) SourceFactory {
	return func(_ context.Context, args RunArgs) (RoundSource, error) {
		source := adapter.NewPackagesSource(args.Dir, args.Patterns,
			adapter.WithTests(args.Tests),
			adapter.WithSourceLogger(logger),
		)

		if args.Watch {
			return adapter.NewWatchSource(source, adapter.WithWatchLogger(logger)), nil
		}

		return source, nil
	}
}

// Run executes one rewrite run and stores its reports. In check mode it
// returns ErrChangesFound when any unit changed.
func (w *workflow) Run(ctx context.Context, args RunArgs) (m.Run, error) {
	if args.Mode == "" {
		args.Mode = ModeReport
	}

	if err := w.ui.Start(controller.WithRunMode()); err != nil {
		return m.Run{}, err
	}
	defer w.ui.Close()

	run := m.Run{ID: uuid.NewString(), Mode: string(args.Mode), StartedAt: w.now()}

	err := w.execute(ctx, args, &run)
	if err != nil && !errors.Is(err, ErrChangesFound) {
		_ = w.ui.DisplayRun(run, err)
		return run, err
	}

	if displayErr := w.ui.DisplayRun(run, nil); displayErr != nil {
		return run, displayErr
	}

	w.ui.Wait()

	return run, err
}

func (w *workflow) execute(ctx context.Context, args RunArgs, run *m.Run) error {
	source, err := w.sources(ctx, args)
	if err != nil {
		return fmt.Errorf("creating round source: %w", err)
	}

	if closer, ok := source.(io.Closer); ok {
		defer func() {
			_ = closer.Close()
		}()
	}

	var writeErr error

	hook := func(round m.Round, results []m.Result) {
		w.ui.DisplayRoundResults(round.Number, results)

		if args.Mode != ModeWrite {
			return
		}

		if err := w.fsAdapter.WriteResults(ctx, m.Path(args.Dir), results); err != nil {
			w.logger.Error("writing results", "round", round.Number, "error", err)
			writeErr = errors.Join(writeErr, err)
		}
	}

	ctrl := NewController(w.catalog, WithLogger(w.logger), WithRoundHook(hook))

	ledger, err := ctrl.Run(ctx, source)
	if ledger != nil {
		for _, result := range ledger.Results() {
			run.Reports = append(run.Reports, m.NewReport(result))
		}
	}

	if err := errors.Join(err, writeErr); err != nil {
		return err
	}

	// watch runs end on cancellation; their reports are still stored
	persistCtx := context.WithoutCancel(ctx)

	if w.store != nil {
		if err := w.store.SaveRun(persistCtx, *run); err != nil {
			return fmt.Errorf("saving run: %w", err)
		}
	}

	if run.ChangedCount() == 0 {
		return nil
	}

	if args.Mode != ModeWrite && args.PatchPath != "" {
		if err := w.fsAdapter.WritePatch(args.PatchPath, ledger.Results()); err != nil {
			return err
		}
	}

	if args.Mode == ModeCheck {
		return ErrChangesFound
	}

	return nil
}

// List shows the recipes the catalog knows about.
func (w *workflow) List(ctx context.Context) error {
	recipes, err := w.catalog.Recipes(ctx)
	if err != nil {
		return err
	}

	return w.ui.DisplayRecipes(recipes)
}

// View shows the latest stored run.
func (w *workflow) View(ctx context.Context) error {
	if w.store == nil {
		return adapter.ErrNoRuns
	}

	if err := w.ui.Start(controller.WithViewMode()); err != nil {
		return err
	}
	defer w.ui.Close()

	run, err := w.store.LatestRun(ctx)
	if err := w.ui.DisplayRun(run, err); err != nil {
		return err
	}

	w.ui.Wait()

	return nil
}
