package testutil

import (
	"go/token"
	"go/types"
	"path"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mouse-blink/gorewrite/internal/adapter"
	m "github.com/mouse-blink/gorewrite/internal/model"
)

// StubImporter resolves every import to an empty, complete package named
// after the last path element. Type checking then runs without touching the
// build cache; references into imported packages stay unresolved but package
// names are attributed.
type StubImporter struct {
	pkgs map[string]*types.Package
}

// NewStubImporter creates a StubImporter.
func NewStubImporter() *StubImporter {
	return &StubImporter{pkgs: make(map[string]*types.Package)}
}

// Import returns the stub package for importPath.
func (s *StubImporter) Import(importPath string) (*types.Package, error) {
	if pkg, ok := s.pkgs[importPath]; ok {
		return pkg, nil
	}

	pkg := types.NewPackage(importPath, path.Base(importPath))
	pkg.MarkComplete()
	s.pkgs[importPath] = pkg

	return pkg, nil
}

// LoadUnit parses and type-checks src into a unit with the given id.
func LoadUnit(t testing.TB, id, src string) m.Unit {
	t.Helper()

	return LoadUnitWith(t, token.NewFileSet(), id, src)
}

// LoadUnitWith is LoadUnit with a caller supplied file set, so several units
// can share one set the way a host presents them.
func LoadUnitWith(t testing.TB, fset *token.FileSet, id, src string) m.Unit {
	t.Helper()

	goAdapter := adapter.NewLocalGoFileAdapter(adapter.WithImporter(NewStubImporter()))

	unit, err := goAdapter.Load(fset, m.UnitID(id), id, []byte(src))
	require.NoError(t, err)

	return unit
}

// ParseUnit parses src into a unit without type information.
func ParseUnit(t testing.TB, id, src string) m.Unit {
	t.Helper()

	fset := token.NewFileSet()
	goAdapter := adapter.NewLocalGoFileAdapter()

	file, err := goAdapter.Parse(fset, id, []byte(src))
	require.NoError(t, err)

	return m.Unit{ID: m.UnitID(id), Package: file.Name.Name, Fset: fset, File: file, Src: []byte(src)}
}
