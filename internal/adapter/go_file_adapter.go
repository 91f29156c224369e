package adapter

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"

	m "github.com/mouse-blink/gorewrite/internal/model"
)

// GoFileAdapter encapsulates Go-specific parsing and type checking so the
// domain layer only ever sees units the way a compiler host presents them.
type GoFileAdapter interface {
	// Parse builds an AST using the provided file set and optional source bytes.
	Parse(fileSet *token.FileSet, filename string, src []byte) (*ast.File, error)
	// Load parses and type-checks one file into a unit. Type errors are
	// tolerated; the unit then carries whatever information was recovered.
	Load(fileSet *token.FileSet, id m.UnitID, filename string, src []byte) (m.Unit, error)
}

// LocalGoFileAdapter provides a concrete GoFileAdapter backed by go/parser
// and go/types.
type LocalGoFileAdapter struct {
	importer types.Importer
}

// GoFileOption configures a LocalGoFileAdapter.
type GoFileOption func(*LocalGoFileAdapter)

// WithImporter sets the importer used to resolve imported packages.
func WithImporter(imp types.Importer) GoFileOption {
	return func(a *LocalGoFileAdapter) { a.importer = imp }
}

// NewLocalGoFileAdapter constructs a LocalGoFileAdapter.
func NewLocalGoFileAdapter(opts ...GoFileOption) *LocalGoFileAdapter {
	a := &LocalGoFileAdapter{}
	for _, opt := range opts {
		opt(a)
	}

	if a.importer == nil {
		a.importer = importer.Default()
	}

	return a
}

// Parse builds an AST for the provided filename/source pair.
func (a *LocalGoFileAdapter) Parse(fileSet *token.FileSet, filename string, src []byte) (*ast.File, error) {
	return parser.ParseFile(fileSet, filename, src, parser.ParseComments)
}

// Load parses and type-checks the file.
func (a *LocalGoFileAdapter) Load(fileSet *token.FileSet, id m.UnitID, filename string, src []byte) (m.Unit, error) {
	file, err := a.Parse(fileSet, filename, src)
	if err != nil {
		return m.Unit{}, err
	}

	info := newTypesInfo()
	conf := types.Config{
		Importer: a.importer,
		Error:    func(error) {},
	}

	pkg, _ := conf.Check(file.Name.Name, fileSet, []*ast.File{file}, info)

	return m.Unit{
		ID:      id,
		Package: file.Name.Name,
		Fset:    fileSet,
		File:    file,
		Src:     src,
		Info:    info,
		Types:   pkg,
	}, nil
}

func newTypesInfo() *types.Info {
	return &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Defs:       make(map[*ast.Ident]types.Object),
		Uses:       make(map[*ast.Ident]types.Object),
		Implicits:  make(map[ast.Node]types.Object),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
		Scopes:     make(map[ast.Node]*types.Scope),
	}
}
