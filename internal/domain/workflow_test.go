package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mouse-blink/gorewrite/internal/adapter"
	adapterMocks "github.com/mouse-blink/gorewrite/internal/adapter/mocks"
	controllerMocks "github.com/mouse-blink/gorewrite/internal/controller/mocks"
	m "github.com/mouse-blink/gorewrite/internal/model"
	"github.com/mouse-blink/gorewrite/internal/recipe"
	"github.com/mouse-blink/gorewrite/internal/testutil"
)

// testCatalog resolves to a fixed set and lists its recipes.
type testCatalog struct {
	set recipe.Set
	err error
}

func (c testCatalog) Resolve(context.Context) (recipe.Set, error) {
	return c.set, c.err
}

func (c testCatalog) Recipes(context.Context) ([]m.RecipeInfo, error) {
	if c.err != nil {
		return nil, c.err
	}

	infos := make([]m.RecipeInfo, 0, c.set.Len())
	for _, r := range c.set.Recipes() {
		infos = append(infos, recipe.Info(r))
	}

	return infos, nil
}

var fixedNow = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func staticSources(rounds ...m.Round) SourceFactory {
	return func(context.Context, RunArgs) (RoundSource, error) {
		return adapter.NewStaticSource(rounds...), nil
	}
}

func workflowRounds(t *testing.T) []m.Round {
	t.Helper()

	return []m.Round{
		{Units: []m.Unit{testutil.ParseUnit(t, "x.go", "package p\n\nvar x = 1\n")}},
		{Units: []m.Unit{testutil.ParseUnit(t, "y.go", "package p\n\nvar y = 2\n")}, Final: true},
	}
}

func expectRunUI(ui *controllerMocks.MockUI) {
	ui.On("Start", mock.Anything).Return(nil).Once()
	ui.On("DisplayRoundResults", mock.Anything, mock.Anything).Return().Maybe()
	ui.On("Close").Return().Once()
}

func TestWorkflow_Run_ReportMode(t *testing.T) {
	ui := controllerMocks.NewMockUI(t)
	store := adapterMocks.NewMockReportStore(t)
	fs := adapterMocks.NewMockSourceFSAdapter(t)

	expectRunUI(ui)
	ui.On("DisplayRun", mock.MatchedBy(func(run m.Run) bool { return run.ChangedCount() == 1 }), nil).Return(nil).Once()
	ui.On("Wait").Return().Once()

	store.On("SaveRun", mock.Anything, mock.MatchedBy(func(run m.Run) bool {
		return run.Mode == "report" && run.StartedAt.Equal(fixedNow) && len(run.Reports) == 2 && run.ID != ""
	})).Return(nil).Once()

	fs.On("WritePatch", m.Path("out.patch"), mock.MatchedBy(func(results []m.Result) bool {
		return len(results) == 2 && results[0].Changed() && !results[1].Changed()
	})).Return(nil).Once()

	catalog := testCatalog{set: recipe.NewSet(renameRecipe("rename.x", "x", "z"))}
	wf := NewWorkflow(fs, store, ui, catalog, staticSources(workflowRounds(t)...),
		WithWorkflowLogger(testutil.NewTestLogger(t)), WithClock(func() time.Time { return fixedNow }))

	run, err := wf.Run(t.Context(), RunArgs{Mode: ModeReport, PatchPath: "out.patch"})
	require.NoError(t, err)

	require.Len(t, run.Reports, 2)
	assert.Equal(t, m.UnitID("x.go"), run.Reports[0].Unit)
	assert.True(t, run.Reports[0].Changed)
	assert.Equal(t, 2, run.Reports[1].Round)
	fs.AssertNotCalled(t, "WriteResults", mock.Anything, mock.Anything, mock.Anything)
}

func TestWorkflow_Run_WriteMode(t *testing.T) {
	ui := controllerMocks.NewMockUI(t)
	store := adapterMocks.NewMockReportStore(t)
	fs := adapterMocks.NewMockSourceFSAdapter(t)

	expectRunUI(ui)
	ui.On("DisplayRun", mock.Anything, nil).Return(nil).Once()
	ui.On("Wait").Return().Once()
	store.On("SaveRun", mock.Anything, mock.Anything).Return(nil).Once()
	fs.On("WriteResults", mock.Anything, m.Path("proj"), mock.Anything).Return(nil).Twice()

	catalog := testCatalog{set: recipe.NewSet(renameRecipe("rename.x", "x", "z"))}
	wf := NewWorkflow(fs, store, ui, catalog, staticSources(workflowRounds(t)...))

	_, err := wf.Run(t.Context(), RunArgs{Dir: "proj", Mode: ModeWrite, PatchPath: "out.patch"})
	require.NoError(t, err)

	fs.AssertNotCalled(t, "WritePatch", mock.Anything, mock.Anything)
}

func TestWorkflow_Run_WriteFailure(t *testing.T) {
	ui := controllerMocks.NewMockUI(t)
	store := adapterMocks.NewMockReportStore(t)
	fs := adapterMocks.NewMockSourceFSAdapter(t)
	boom := errors.New("disk full")

	expectRunUI(ui)
	ui.On("DisplayRun", mock.Anything, mock.Anything).Return(nil).Once()
	fs.On("WriteResults", mock.Anything, mock.Anything, mock.Anything).Return(boom)

	catalog := testCatalog{set: recipe.NewSet(renameRecipe("rename.x", "x", "z"))}
	wf := NewWorkflow(fs, store, ui, catalog, staticSources(workflowRounds(t)...))

	_, err := wf.Run(t.Context(), RunArgs{Mode: ModeWrite})
	require.ErrorIs(t, err, boom)

	store.AssertNotCalled(t, "SaveRun", mock.Anything, mock.Anything)
}

func TestWorkflow_Run_CheckMode(t *testing.T) {
	tests := []struct {
		name    string
		recipe  recipe.Recipe
		wantErr error
	}{
		{name: "changes found", recipe: renameRecipe("rename.x", "x", "z"), wantErr: ErrChangesFound},
		{name: "clean", recipe: noopRecipe("noop"), wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ui := controllerMocks.NewMockUI(t)
			store := adapterMocks.NewMockReportStore(t)
			fs := adapterMocks.NewMockSourceFSAdapter(t)

			expectRunUI(ui)
			ui.On("DisplayRun", mock.Anything, nil).Return(nil).Once()
			ui.On("Wait").Return().Once()
			store.On("SaveRun", mock.Anything, mock.Anything).Return(nil).Once()

			if tt.wantErr != nil {
				fs.On("WritePatch", m.Path("check.patch"), mock.Anything).Return(nil).Once()
			}

			wf := NewWorkflow(fs, store, ui, testCatalog{set: recipe.NewSet(tt.recipe)}, staticSources(workflowRounds(t)...))

			_, err := wf.Run(t.Context(), RunArgs{Mode: ModeCheck, PatchPath: "check.patch"})
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWorkflow_Run_ConfigurationError(t *testing.T) {
	ui := controllerMocks.NewMockUI(t)
	store := adapterMocks.NewMockReportStore(t)
	fs := adapterMocks.NewMockSourceFSAdapter(t)

	expectRunUI(ui)
	ui.On("DisplayRun", mock.Anything, mock.MatchedBy(func(err error) bool {
		var cfgErr *ConfigurationError
		return errors.As(err, &cfgErr)
	})).Return(nil).Once()

	wf := NewWorkflow(fs, store, ui, testCatalog{err: errors.New("unknown recipe")}, staticSources(workflowRounds(t)...))

	run, err := wf.Run(t.Context(), RunArgs{})

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Empty(t, run.Reports)
	store.AssertNotCalled(t, "SaveRun", mock.Anything, mock.Anything)
}

func TestWorkflow_Run_SourceError(t *testing.T) {
	ui := controllerMocks.NewMockUI(t)
	boom := errors.New("go list failed")

	ui.On("Start", mock.Anything).Return(nil).Once()
	ui.On("Close").Return().Once()
	ui.On("DisplayRun", mock.Anything, mock.Anything).Return(nil).Once()

	sources := func(context.Context, RunArgs) (RoundSource, error) { return nil, boom }
	wf := NewWorkflow(adapterMocks.NewMockSourceFSAdapter(t), nil, ui, testCatalog{}, sources)

	_, err := wf.Run(t.Context(), RunArgs{})
	assert.ErrorIs(t, err, boom)
}

func TestWorkflow_List(t *testing.T) {
	ui := controllerMocks.NewMockUI(t)
	catalog := testCatalog{set: recipe.NewSet(noopRecipe("a"), noopRecipe("b"))}

	ui.On("DisplayRecipes", []m.RecipeInfo{{ID: "a"}, {ID: "b"}}).Return(nil).Once()

	wf := NewWorkflow(nil, nil, ui, catalog, staticSources())
	require.NoError(t, wf.List(t.Context()))
}

func TestWorkflow_View(t *testing.T) {
	t.Run("latest run", func(t *testing.T) {
		ui := controllerMocks.NewMockUI(t)
		store := adapterMocks.NewMockReportStore(t)
		run := m.Run{ID: "run-1", Reports: []m.Report{{Unit: "a.go", Changed: true}}}

		store.On("LatestRun", mock.Anything).Return(run, nil).Once()
		ui.On("Start", mock.Anything).Return(nil).Once()
		ui.On("DisplayRun", run, nil).Return(nil).Once()
		ui.On("Wait").Return().Once()
		ui.On("Close").Return().Once()

		wf := NewWorkflow(nil, store, ui, testCatalog{}, staticSources())
		require.NoError(t, wf.View(t.Context()))
	})

	t.Run("no runs", func(t *testing.T) {
		ui := controllerMocks.NewMockUI(t)
		store := adapterMocks.NewMockReportStore(t)

		store.On("LatestRun", mock.Anything).Return(m.Run{}, adapter.ErrNoRuns).Once()
		ui.On("Start", mock.Anything).Return(nil).Once()
		ui.On("DisplayRun", m.Run{}, adapter.ErrNoRuns).Return(adapter.ErrNoRuns).Once()
		ui.On("Close").Return().Once()

		wf := NewWorkflow(nil, store, ui, testCatalog{}, staticSources())
		assert.ErrorIs(t, wf.View(t.Context()), adapter.ErrNoRuns)
	})
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeReport, "report": ModeReport, "write": ModeWrite, "check": ModeCheck} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseMode("delete")
	assert.Error(t, err)
}
