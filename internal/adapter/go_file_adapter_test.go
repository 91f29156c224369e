package adapter

import (
	"go/token"
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/mouse-blink/gorewrite/internal/model"
)

// emptyImporter resolves every import to an empty, complete package.
type emptyImporter struct{}

func (emptyImporter) Import(path string) (*types.Package, error) {
	pkg := types.NewPackage(path, path)
	pkg.MarkComplete()

	return pkg, nil
}

const goFileSource = `package main

import "fmt"

var count int

func main() {
	fmt.Println(count)
}
`

func TestLocalGoFileAdapter_Parse(t *testing.T) {
	adapter := NewLocalGoFileAdapter()
	fset := token.NewFileSet()

	file, err := adapter.Parse(fset, "main.go", []byte(goFileSource))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if file.Name.Name != "main" {
		t.Fatalf("Parse() package = %s, want main", file.Name.Name)
	}
}

func TestLocalGoFileAdapter_Parse_InvalidSource(t *testing.T) {
	adapter := NewLocalGoFileAdapter()
	fset := token.NewFileSet()

	if _, err := adapter.Parse(fset, "broken.go", []byte("package foo\n func")); err == nil {
		t.Fatalf("Parse() expected error for invalid source")
	}
}

func TestLocalGoFileAdapter_Load(t *testing.T) {
	adapter := NewLocalGoFileAdapter(WithImporter(emptyImporter{}))
	fset := token.NewFileSet()

	unit, err := adapter.Load(fset, "cmd/main.go", "/abs/cmd/main.go", []byte(goFileSource))
	require.NoError(t, err)

	assert.Equal(t, m.UnitID("cmd/main.go"), unit.ID)
	assert.Equal(t, "main", unit.Package)
	assert.Same(t, fset, unit.Fset)
	assert.Equal(t, goFileSource, string(unit.Src))
	require.NotNil(t, unit.Info)
	require.NotNil(t, unit.Types)
	assert.Equal(t, "main", unit.Types.Name())

	obj := unit.Types.Scope().Lookup("count")
	require.NotNil(t, obj)
	assert.Equal(t, "int", obj.Type().String())

	tf := fset.File(unit.File.Pos())
	require.NotNil(t, tf)
	assert.Equal(t, "/abs/cmd/main.go", tf.Name())
}

func TestLocalGoFileAdapter_Load_ToleratesTypeErrors(t *testing.T) {
	adapter := NewLocalGoFileAdapter(WithImporter(emptyImporter{}))

	src := "package p\n\nvar x int = \"not an int\"\n\nfunc f() { undefined() }\n"

	unit, err := adapter.Load(token.NewFileSet(), "p.go", "p.go", []byte(src))
	require.NoError(t, err)
	require.NotNil(t, unit.Types)
	assert.NotNil(t, unit.Types.Scope().Lookup("x"))
}

func TestLocalGoFileAdapter_Load_SyntaxError(t *testing.T) {
	adapter := NewLocalGoFileAdapter()

	_, err := adapter.Load(token.NewFileSet(), "p.go", "p.go", []byte("package p\n func"))
	assert.Error(t, err)
}
