package analyzer

import (
	"context"
	"errors"
	"go/ast"
	"go/token"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/analysis"

	"github.com/mouse-blink/gorewrite/internal/domain"
	m "github.com/mouse-blink/gorewrite/internal/model"
	"github.com/mouse-blink/gorewrite/internal/recipe"
	"github.com/mouse-blink/gorewrite/internal/testutil"
)

// newPass builds a pass over units sharing one file set.
func newPass(t *testing.T, a *analysis.Analyzer, units []m.Unit, report func(analysis.Diagnostic)) *analysis.Pass {
	t.Helper()
	require.NotEmpty(t, units)

	srcs := make(map[string][]byte, len(units))
	files := make([]*ast.File, 0, len(units))

	for _, unit := range units {
		srcs[string(unit.ID)] = unit.Src
		files = append(files, unit.File)
	}

	return &analysis.Pass{
		Analyzer:  a,
		Fset:      units[0].Fset,
		Files:     files,
		Pkg:       units[0].Types,
		TypesInfo: units[0].Info,
		Report:    report,
		ReadFile: func(name string) ([]byte, error) {
			if src, ok := srcs[name]; ok {
				return src, nil
			}

			return nil, os.ErrNotExist
		},
	}
}

func useAny(t *testing.T) domain.Resolver {
	t.Helper()

	r, ok := recipe.Default().Lookup(recipe.UseAnyID)
	require.True(t, ok)

	return domain.StaticResolver(recipe.NewSet(r))
}

func TestAnalyzer_ReportsChangedFiles(t *testing.T) {
	fset := token.NewFileSet()
	changed := testutil.LoadUnitWith(t, fset, "a.go", "package p\n\nvar x interface{}\n")
	clean := testutil.LoadUnitWith(t, fset, "b.go", "package p\n\nvar y any\n")

	a := New(useAny(t), WithLogger(testutil.NewTestLogger(t)))

	var diags []analysis.Diagnostic
	pass := newPass(t, a, []m.Unit{changed, clean}, func(d analysis.Diagnostic) { diags = append(diags, d) })

	_, err := a.Run(pass)
	require.NoError(t, err)

	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, changed.File.Package, d.Pos)
	assert.Equal(t, Name, d.Category)
	assert.Equal(t, "rewritten by "+recipe.UseAnyID, d.Message)

	require.Len(t, d.SuggestedFixes, 1)
	require.Len(t, d.SuggestedFixes[0].TextEdits, 1)

	edit := d.SuggestedFixes[0].TextEdits[0]
	tf := fset.File(changed.File.Pos())
	assert.Equal(t, tf.Pos(0), edit.Pos)
	assert.Equal(t, tf.Pos(tf.Size()), edit.End)
	assert.Equal(t, "package p\n\nvar x any\n", string(edit.NewText))
}

func TestAnalyzer_NoRecipes(t *testing.T) {
	a := New(domain.StaticResolver(recipe.NewSet()))
	unit := testutil.LoadUnit(t, "a.go", "package p\n\nvar x interface{}\n")

	reported := false
	pass := newPass(t, a, []m.Unit{unit}, func(analysis.Diagnostic) { reported = true })

	_, err := a.Run(pass)
	require.NoError(t, err)
	assert.False(t, reported)
}

func TestAnalyzer_ConfigurationError(t *testing.T) {
	cause := errors.New("bad config")
	a := New(domain.ResolverFunc(func(context.Context) (recipe.Set, error) { return recipe.Set{}, cause }))
	unit := testutil.LoadUnit(t, "a.go", "package p\n")

	_, err := a.Run(newPass(t, a, []m.Unit{unit}, func(analysis.Diagnostic) {}))

	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.ErrorIs(t, err, cause)
}

func TestAnalyzer_Disabled(t *testing.T) {
	a := New(domain.ResolverFunc(func(context.Context) (recipe.Set, error) { return recipe.Set{}, domain.ErrDisabled }))
	unit := testutil.LoadUnit(t, "a.go", "package p\n\nvar x interface{}\n")

	reported := false
	_, err := a.Run(newPass(t, a, []m.Unit{unit}, func(analysis.Diagnostic) { reported = true }))

	require.NoError(t, err)
	assert.False(t, reported)
}

func TestAnalyzer_UnreadableFile(t *testing.T) {
	a := New(useAny(t))
	unit := testutil.LoadUnit(t, "a.go", "package p\n")

	pass := newPass(t, a, []m.Unit{unit}, func(analysis.Diagnostic) {})
	pass.ReadFile = func(string) ([]byte, error) { return nil, os.ErrPermission }

	_, err := a.Run(pass)
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestAnalyzer_ReportsSkippedFiles(t *testing.T) {
	fset := token.NewFileSet()
	good := testutil.LoadUnitWith(t, fset, "a.go", "package p\n\nvar x interface{}\n")
	stale := testutil.LoadUnitWith(t, fset, "b.go", "package p\n\nvar y int\n")

	a := New(useAny(t))

	var diags []analysis.Diagnostic
	pass := newPass(t, a, []m.Unit{good, stale}, func(d analysis.Diagnostic) { diags = append(diags, d) })

	readFile := pass.ReadFile
	pass.ReadFile = func(name string) ([]byte, error) {
		if name == "b.go" {
			return []byte("package p\n\n// edited on disk\n"), nil
		}

		return readFile(name)
	}

	_, err := a.Run(pass)
	require.NoError(t, err)

	require.Len(t, diags, 2)

	assert.Equal(t, stale.File.Package, diags[0].Pos)
	assert.Equal(t, Name, diags[0].Category)
	assert.Contains(t, diags[0].Message, "not rewritten: ")
	assert.Contains(t, diags[0].Message, "b.go")
	assert.Empty(t, diags[0].SuggestedFixes)

	assert.Equal(t, good.File.Package, diags[1].Pos)
	assert.Len(t, diags[1].SuggestedFixes, 1)
}
