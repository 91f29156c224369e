// Package analyzer exposes gorewrite as a go/analysis analyzer, so recipes run
// inside `go vet -vettool` and editors that apply suggested fixes.
package analyzer

import (
	"context"
	"fmt"
	"go/ast"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/tools/go/analysis"

	"github.com/mouse-blink/gorewrite/internal/domain"
	m "github.com/mouse-blink/gorewrite/internal/model"
)

// Name is the analyzer name.
const Name = "gorewrite"

const doc = `apply gorewrite recipes

Each package is one final round: every file is converted, the active recipes
run over it, and every changed file is reported with a suggested fix that
replaces the whole file with the rewritten source. Files the recipes could
not see are reported without a fix.`

// Option configures the analyzer.
type Option func(*runner)

// WithLogger sets the logger handed to each pass's controller.
func WithLogger(logger *slog.Logger) Option {
	return func(r *runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

type runner struct {
	resolver domain.Resolver
	logger   *slog.Logger
}

// New returns an analyzer running the recipes resolver yields.
func New(resolver domain.Resolver, opts ...Option) *analysis.Analyzer {
	r := &runner{resolver: resolver, logger: slog.New(slog.DiscardHandler)}

	for _, opt := range opts {
		opt(r)
	}

	return &analysis.Analyzer{
		Name: Name,
		Doc:  doc,
		Run:  r.run,
	}
}

func (r *runner) run(pass *analysis.Pass) (any, error) {
	units, files, err := r.units(pass)
	if err != nil {
		return nil, err
	}

	ctrl := domain.NewController(r.resolver,
		domain.WithLogger(r.logger),
		domain.WithSkipHook(func(unit m.UnitID, _ int, err error) {
			if file, ok := files[unit]; ok {
				pass.Report(analysis.Diagnostic{
					Pos:      file.Package,
					Category: Name,
					Message:  "not rewritten: " + err.Error(),
				})
			}
		}),
	)

	if err := ctrl.ProcessRound(context.Background(), m.Round{Number: 1, Units: units, Final: true}); err != nil {
		return nil, err
	}

	for _, result := range ctrl.Ledger().Changed() {
		file := files[result.Unit]
		report(pass, file, result)
	}

	return nil, nil
}

// units presents the files of the pass in their order.
func (r *runner) units(pass *analysis.Pass) ([]m.Unit, map[m.UnitID]*ast.File, error) {
	readFile := pass.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}

	pkgPath := ""
	if pass.Pkg != nil {
		pkgPath = pass.Pkg.Path()
	}

	units := make([]m.Unit, 0, len(pass.Files))
	files := make(map[m.UnitID]*ast.File, len(pass.Files))

	for _, file := range pass.Files {
		tf := pass.Fset.File(file.Pos())
		if tf == nil {
			continue
		}

		src, err := readFile(tf.Name())
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", tf.Name(), err)
		}

		id := m.UnitID(tf.Name())
		files[id] = file
		units = append(units, m.Unit{
			ID:      id,
			Package: pkgPath,
			Fset:    pass.Fset,
			File:    file,
			Src:     src,
			Info:    pass.TypesInfo,
			Types:   pass.Pkg,
		})
	}

	return units, files, nil
}

func report(pass *analysis.Pass, file *ast.File, result m.Result) {
	tf := pass.Fset.File(file.Pos())

	msg := "rewritten by " + strings.Join(result.Change.Recipes, ", ")

	pass.Report(analysis.Diagnostic{
		Pos:      file.Package,
		Category: Name,
		Message:  msg,
		SuggestedFixes: []analysis.SuggestedFix{{
			Message: msg,
			TextEdits: []analysis.TextEdit{{
				Pos:     tf.Pos(0),
				End:     tf.Pos(tf.Size()),
				NewText: result.After.Print(),
			}},
		}},
	})
}
