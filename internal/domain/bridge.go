package domain

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"strings"

	"github.com/mouse-blink/gorewrite/internal/lst"
	m "github.com/mouse-blink/gorewrite/internal/model"
)

// Bridge converts host units into lossless trees.
type Bridge interface {
	Convert(unit m.Unit) (*lst.Tree, error)
}

type bridge struct{}

// NewBridge creates a Bridge.
func NewBridge() Bridge {
	return bridge{}
}

// Node types the bridge knows how to map. A node type missing here (for
// instance one added by a newer toolchain) fails the conversion of its unit.
var knownKinds = map[string]struct{}{
	"ArrayType": {}, "AssignStmt": {}, "BadDecl": {}, "BadExpr": {}, "BadStmt": {},
	"BasicLit": {}, "BinaryExpr": {}, "BlockStmt": {}, "BranchStmt": {}, "CallExpr": {},
	"CaseClause": {}, "ChanType": {}, "CommClause": {}, "CompositeLit": {}, "DeclStmt": {},
	"DeferStmt": {}, "Ellipsis": {}, "EmptyStmt": {}, "ExprStmt": {}, "Field": {},
	"FieldList": {}, "File": {}, "ForStmt": {}, "FuncDecl": {}, "FuncLit": {},
	"FuncType": {}, "GenDecl": {}, "GoStmt": {}, "Ident": {}, "IfStmt": {},
	"ImportSpec": {}, "IncDecStmt": {}, "IndexExpr": {}, "IndexListExpr": {}, "InterfaceType": {},
	"KeyValueExpr": {}, "LabeledStmt": {}, "MapType": {}, "ParenExpr": {}, "RangeStmt": {},
	"ReturnStmt": {}, "SelectStmt": {}, "SelectorExpr": {}, "SendStmt": {}, "SliceExpr": {},
	"StarExpr": {}, "StructType": {}, "SwitchStmt": {}, "TypeAssertExpr": {}, "TypeSpec": {},
	"TypeSwitchStmt": {}, "UnaryExpr": {}, "ValueSpec": {},
}

func kindOf(n ast.Node) (lst.Kind, bool) {
	name := strings.TrimPrefix(fmt.Sprintf("%T", n), "*ast.")
	_, ok := knownKinds[name]

	return lst.Kind(name), ok
}

func isLeaf(n ast.Node) bool {
	switch n.(type) {
	case *ast.Ident, *ast.BasicLit, *ast.BadExpr, *ast.BadStmt, *ast.BadDecl:
		return true
	default:
		return false
	}
}

// Convert maps the unit's host tree onto a lossless tree. Node boundaries come
// from the positions the host recorded; the text between child nodes becomes
// tokens, and whitespace and host comments become token prefixes.
func (bridge) Convert(unit m.Unit) (tree *lst.Tree, err error) {
	defer func() {
		if r := recover(); r != nil {
			tree = nil
			err = &ConversionError{Unit: unit.ID, Reason: "panic", Err: fmt.Errorf("%v", r)}
		}
	}()

	if unit.File == nil || unit.Fset == nil {
		return nil, &ConversionError{Unit: unit.ID, Reason: "unit carries no syntax tree"}
	}

	tf := unit.Fset.File(unit.File.FileStart)
	if tf == nil {
		return nil, &ConversionError{Unit: unit.ID, Reason: "file not registered in file set"}
	}

	if tf.Size() != len(unit.Src) {
		return nil, &ConversionError{
			Unit:   unit.ID,
			Reason: fmt.Sprintf("source is %d bytes, host recorded %d", len(unit.Src), tf.Size()),
		}
	}

	b := newBuilder(unit, tf)

	root, err := b.file()
	if err != nil {
		return nil, &ConversionError{Unit: unit.ID, Reason: "mapping host tree", Err: err}
	}

	pkg := unit.Package
	if pkg == "" && unit.File.Name != nil {
		pkg = unit.File.Name.Name
	}

	tree = &lst.Tree{
		Path:    string(unit.ID),
		Package: pkg,
		Root:    root,
		EOF:     lst.Space(b.pending.String()),
		Ignore:  fileIgnoreRule(unit.File),
	}

	if got := tree.String(); got != string(unit.Src) {
		return nil, &ConversionError{Unit: unit.ID, Reason: "tree does not reproduce the source"}
	}

	return tree, nil
}

type builder struct {
	unit     m.Unit
	src      []byte
	base     int
	comments map[int]int
	pending  strings.Builder
	nextID   int
	qual     types.Qualifier
}

func newBuilder(unit m.Unit, tf *token.File) *builder {
	b := &builder{
		unit:     unit,
		src:      unit.Src,
		base:     tf.Base(),
		comments: make(map[int]int),
	}

	for _, group := range unit.File.Comments {
		for _, c := range group.List {
			start, end := b.offset(c.Pos()), b.offset(c.End())
			if start >= 0 && end <= len(b.src) && start < end {
				b.comments[start] = end
			}
		}
	}

	if unit.Types != nil {
		b.qual = types.RelativeTo(unit.Types)
	}

	return b
}

func (b *builder) offset(pos token.Pos) int {
	return int(pos) - b.base
}

func (b *builder) file() (*lst.Node, error) {
	root := b.newNode(lst.KindFile, 1, 1)

	if err := b.fill(root, b.unit.File, 0, len(b.src)); err != nil {
		return nil, err
	}

	return root, nil
}

func (b *builder) newNode(kind lst.Kind, line, column int) *lst.Node {
	b.nextID++

	return &lst.Node{ID: b.nextID, Kind: kind, Line: line, Column: column}
}

// span returns the byte range a host node covers. A FuncDecl and its FuncType
// both start at the func keyword; the type is narrowed to its parameter lists.
func (b *builder) span(n, parent ast.Node) (int, int) {
	start, end := n.Pos(), n.End()

	if ft, ok := n.(*ast.FuncType); ok {
		if _, inDecl := parent.(*ast.FuncDecl); inDecl {
			switch {
			case ft.TypeParams != nil && ft.TypeParams.Opening.IsValid():
				start = ft.TypeParams.Opening
			case ft.Params != nil:
				start = ft.Params.Pos()
			}
		}
	}

	if !start.IsValid() || !end.IsValid() {
		return -1, -1
	}

	return b.offset(start), b.offset(end)
}

func (b *builder) convert(n, parent ast.Node, start, end int) (*lst.Node, error) {
	kind, ok := kindOf(n)
	if !ok {
		return nil, fmt.Errorf("unsupported node %T at offset %d", n, start)
	}

	pos := b.unit.Fset.Position(token.Pos(b.base + start))
	node := b.newNode(kind, pos.Line, pos.Column)
	b.attribute(node, n)

	if isLeaf(n) {
		b.token(node, string(b.src[start:end]))
		return node, nil
	}

	if err := b.fill(node, n, start, end); err != nil {
		return nil, err
	}

	return node, nil
}

// fill appends the children of n and the tokens between them to node.
//
// Error recovery in the host parser invents closing delimiters at the end of
// the file, so a child may end past its parent. Such a child is cut at the
// parent's end, and siblings that start inside the cut text are left to it.
func (b *builder) fill(node *lst.Node, n ast.Node, start, end int) error {
	cur := start
	clamped := false

	for _, child := range directChildren(n) {
		cs, ce := b.span(child, n)
		if cs < 0 || ce <= cs || cs >= end {
			continue
		}

		if cs < cur {
			if clamped {
				continue
			}

			return fmt.Errorf("%T at offset %d overlaps its preceding sibling", child, cs)
		}

		if ce > end {
			ce = end
			clamped = true
		}

		b.gap(node, cur, cs)

		converted, err := b.convert(child, n, cs, ce)
		if err != nil {
			return err
		}

		node.Elems = append(node.Elems, converted)
		cur = ce
	}

	b.gap(node, cur, end)

	return nil
}

// directChildren lists the syntax children of n in source order. Comment
// groups are left out; their text is carried in token prefixes.
func directChildren(n ast.Node) []ast.Node {
	var children []ast.Node

	ast.Inspect(n, func(c ast.Node) bool {
		switch c.(type) {
		case nil, *ast.CommentGroup, *ast.Comment:
			return false
		}

		if c == n {
			return true
		}

		children = append(children, c)

		return false
	})

	return children
}

// gap splits src[from:to] into tokens. Whitespace and comments accumulate in
// the pending prefix, everything else becomes token text.
func (b *builder) gap(node *lst.Node, from, to int) {
	for i := from; i < to; {
		if end, ok := b.comments[i]; ok {
			end = min(end, to)
			b.pending.Write(b.src[i:end])
			i = end

			continue
		}

		if isSpace(b.src[i]) {
			b.pending.WriteByte(b.src[i])
			i++

			continue
		}

		j := i + 1
		for j < to && !isSpace(b.src[j]) {
			if _, ok := b.comments[j]; ok {
				break
			}

			j++
		}

		b.token(node, string(b.src[i:j]))
		i = j
	}
}

func (b *builder) token(node *lst.Node, text string) {
	node.Elems = append(node.Elems, &lst.Token{Prefix: lst.Space(b.pending.String()), Text: text})
	b.pending.Reset()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func (b *builder) attribute(node *lst.Node, n ast.Node) {
	info := b.unit.Info
	if info == nil {
		return
	}

	switch x := n.(type) {
	case *ast.Ident:
		if obj := info.ObjectOf(x); obj != nil {
			node.Symbol = symbolOf(obj)
			if _, isPkg := obj.(*types.PkgName); !isPkg && obj.Type() != nil {
				node.Type = types.TypeString(obj.Type(), b.qual)
			}

			return
		}
	case *ast.ImportSpec:
		if obj := info.PkgNameOf(x); obj != nil {
			node.Symbol = symbolOf(obj)
		}

		return
	}

	if e, ok := n.(ast.Expr); ok {
		if tv, ok := info.Types[e]; ok && tv.Type != nil {
			node.Type = types.TypeString(tv.Type, b.qual)
		}
	}
}

// symbolOf names the object a node refers to: "pkg:<path>" for imported
// package names, the bare name for predeclared objects and a package
// qualified name otherwise.
func symbolOf(obj types.Object) string {
	switch o := obj.(type) {
	case *types.PkgName:
		return "pkg:" + o.Imported().Path()
	case *types.Func:
		if o.Pkg() != nil {
			return o.FullName()
		}
	}

	if obj.Pkg() == nil {
		return obj.Name()
	}

	return obj.Pkg().Path() + "." + obj.Name()
}
