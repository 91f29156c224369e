// Package lst implements a lossless source tree: a syntax tree that keeps every
// byte of the file it was built from, so an unmodified tree prints back
// byte-for-byte identical to the original source.
//
// A tree is made of nodes and tokens. Nodes carry structure (kind, type
// attribution, symbol references); tokens carry text. Every token owns the
// whitespace and comments that precede it (its prefix), and the tree owns the
// trailing whitespace after the last token (EOF).
package lst

import (
	"strings"
)

// Kind names the syntactic shape of a node, e.g. "ImportSpec" or "Ident".
type Kind string

// Kinds referenced by the pipeline and the built-in recipes. The bridge may
// produce any kind named after a go/ast node type.
const (
	KindFile          Kind = "File"
	KindGenDecl       Kind = "GenDecl"
	KindFuncDecl      Kind = "FuncDecl"
	KindImportSpec    Kind = "ImportSpec"
	KindIdent         Kind = "Ident"
	KindBasicLit      Kind = "BasicLit"
	KindSelectorExpr  Kind = "SelectorExpr"
	KindInterfaceType Kind = "InterfaceType"
	KindFieldList     Kind = "FieldList"
	KindField         Kind = "Field"
)

// Space is the raw whitespace and comment text preceding a token.
type Space string

// Comments returns the comments contained in the space, in order.
func (s Space) Comments() []string {
	var comments []string

	text := string(s)
	for i := 0; i < len(text); {
		switch {
		case strings.HasPrefix(text[i:], "//"):
			end := strings.IndexByte(text[i:], '\n')
			if end < 0 {
				end = len(text) - i
			}

			comments = append(comments, text[i:i+end])
			i += end
		case strings.HasPrefix(text[i:], "/*"):
			end := strings.Index(text[i+2:], "*/")
			if end < 0 {
				comments = append(comments, text[i:])
				return comments
			}

			comments = append(comments, text[i:i+end+4])
			i += end + 4
		default:
			i++
		}
	}

	return comments
}

// HasComments reports whether the space contains at least one comment.
func (s Space) HasComments() bool {
	return strings.Contains(string(s), "//") || strings.Contains(string(s), "/*")
}

// Lines returns the number of line breaks in the space.
func (s Space) Lines() int {
	return strings.Count(string(s), "\n")
}

// Elem is an element of a node: either a *Node or a *Token.
type Elem interface {
	printTo(b *strings.Builder)
	clone() Elem
}

// Token is a run of source text together with the space in front of it.
type Token struct {
	Prefix Space  `json:"prefix,omitempty"`
	Text   string `json:"text"`
}

func (t *Token) printTo(b *strings.Builder) {
	b.WriteString(string(t.Prefix))
	b.WriteString(t.Text)
}

func (t *Token) clone() Elem {
	c := *t
	return &c
}

// Node is a syntactic construct. Type and Symbol are populated from the host's
// type information when it was available at conversion time.
type Node struct {
	ID     int    `json:"id"`
	Kind   Kind   `json:"kind"`
	Type   string `json:"type,omitempty"`
	Symbol string `json:"symbol,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
	Elems  []Elem `json:"-"`
}

func (n *Node) printTo(b *strings.Builder) {
	for _, e := range n.Elems {
		e.printTo(b)
	}
}

func (n *Node) clone() Elem {
	c := *n
	c.Elems = make([]Elem, len(n.Elems))

	for i, e := range n.Elems {
		c.Elems[i] = e.clone()
	}

	return &c
}

// Children returns the direct child nodes in source order.
func (n *Node) Children() []*Node {
	var children []*Node

	for _, e := range n.Elems {
		if child, ok := e.(*Node); ok {
			children = append(children, child)
		}
	}

	return children
}

// Tokens returns the direct tokens of n, skipping child nodes.
func (n *Node) Tokens() []*Token {
	var tokens []*Token

	for _, e := range n.Elems {
		if tok, ok := e.(*Token); ok {
			tokens = append(tokens, tok)
		}
	}

	return tokens
}

// FirstToken returns the first token printed for n, or nil for an empty node.
func (n *Node) FirstToken() *Token {
	for _, e := range n.Elems {
		switch x := e.(type) {
		case *Token:
			return x
		case *Node:
			if tok := x.FirstToken(); tok != nil {
				return tok
			}
		}
	}

	return nil
}

// Prefix returns the space in front of the node's first token.
func (n *Node) Prefix() Space {
	if tok := n.FirstToken(); tok != nil {
		return tok.Prefix
	}

	return ""
}

// SetPrefix replaces the space in front of the node's first token.
func (n *Node) SetPrefix(s Space) {
	if tok := n.FirstToken(); tok != nil {
		tok.Prefix = s
	}
}

// Text prints the node without the prefix of its first token.
func (n *Node) Text() string {
	var b strings.Builder

	n.printTo(&b)

	return strings.TrimPrefix(b.String(), string(n.Prefix()))
}

// IsLeaf reports whether the node consists of a single token.
func (n *Node) IsLeaf() bool {
	if len(n.Elems) != 1 {
		return false
	}

	_, ok := n.Elems[0].(*Token)

	return ok
}

// Replace turns n into a leaf of the given kind holding text. The prefix of
// the original first token is kept, attribution is cleared.
func (n *Node) Replace(kind Kind, text string) {
	prefix := n.Prefix()
	n.Kind = kind
	n.Type = ""
	n.Symbol = ""
	n.Elems = []Elem{&Token{Prefix: prefix, Text: text}}
}

// RemoveChild detaches child from n together with its prefix. It reports
// whether child was a direct child of n.
func (n *Node) RemoveChild(child *Node) bool {
	for i, e := range n.Elems {
		if e == child {
			n.Elems = append(n.Elems[:i:i], n.Elems[i+1:]...)
			return true
		}
	}

	return false
}

// Tree is the lossless representation of one source file.
type Tree struct {
	Path    string     `json:"path"`
	Package string     `json:"package,omitempty"`
	Root    *Node      `json:"root"`
	EOF     Space      `json:"eof,omitempty"`
	Ignore  IgnoreRule `json:"ignore"`
}

// Print renders the tree back to source text.
func (t *Tree) Print() []byte {
	return []byte(t.String())
}

// String renders the tree back to source text.
func (t *Tree) String() string {
	var b strings.Builder

	if t.Root != nil {
		t.Root.printTo(&b)
	}

	b.WriteString(string(t.EOF))

	return b.String()
}

// Clone returns a deep copy of the tree. Recipes always work on clones so a
// tree handed out in a result is never modified afterwards.
func (t *Tree) Clone() *Tree {
	c := *t
	if t.Root != nil {
		root, _ := t.Root.clone().(*Node)
		c.Root = root
	}

	c.Ignore.Recipes = append([]string(nil), t.Ignore.Recipes...)

	return &c
}

// Equal reports whether both trees print the same source.
func (t *Tree) Equal(other *Tree) bool {
	if t == nil || other == nil {
		return t == other
	}

	return t.String() == other.String()
}

// Find returns every node of the given kind in pre-order.
func (t *Tree) Find(kind Kind) []*Node {
	var found []*Node

	t.Walk(func(n, _ *Node) bool {
		if n.Kind == kind {
			found = append(found, n)
		}

		return true
	})

	return found
}

// Walk visits every node in pre-order together with its parent (nil for the
// root). Returning false from fn skips the node's children.
func (t *Tree) Walk(fn func(n, parent *Node) bool) {
	if t.Root != nil {
		walk(t.Root, nil, fn)
	}
}

func walk(n, parent *Node, fn func(n, parent *Node) bool) {
	if !fn(n, parent) {
		return
	}

	for _, e := range n.Elems {
		if child, ok := e.(*Node); ok {
			walk(child, n, fn)
		}
	}
}

// IgnoreRule lists recipes a file opted out of through a directive comment.
type IgnoreRule struct {
	All     bool     `json:"all,omitempty"`
	Recipes []string `json:"recipes,omitempty"`
}

// Ignores reports whether the rule excludes the recipe with the given id.
func (r IgnoreRule) Ignores(id string) bool {
	if r.All {
		return true
	}

	for _, name := range r.Recipes {
		if strings.EqualFold(name, id) {
			return true
		}
	}

	return false
}
