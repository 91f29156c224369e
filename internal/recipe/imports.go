package recipe

import (
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/mouse-blink/gorewrite/internal/lst"
)

// Identifiers of the import recipes.
const (
	RemoveUnusedImportsID = "gorewrite.RemoveUnusedImports"
	OrderImportsID        = "gorewrite.OrderImports"
)

func init() {
	Register(Definition{
		Name:    RemoveUnusedImportsID,
		Display: "Remove unused imports",
		About:   "Removes import specs whose package name is never referenced; drops import declarations left empty.",
		Apply:   removeUnusedImports,
	})
	Register(Definition{
		Name:    OrderImportsID,
		Display: "Order imports",
		About:   "Sorts the specs of each parenthesized import block by path, group by group.",
		Apply:   orderImports,
	})
}

// usage records how package names are referenced outside import declarations.
type usage struct {
	symbols map[string]struct{}
	names   map[string]struct{}
}

func collectUsage(tree *lst.Tree) usage {
	u := usage{symbols: map[string]struct{}{}, names: map[string]struct{}{}}

	tree.Walk(func(n, _ *lst.Node) bool {
		switch n.Kind {
		case lst.KindImportSpec:
			return false
		case lst.KindIdent:
			if n.Symbol != "" {
				u.symbols[n.Symbol] = struct{}{}
			}
		case lst.KindSelectorExpr:
			children := n.Children()
			if len(children) > 0 && children[0].Kind == lst.KindIdent {
				u.names[children[0].Text()] = struct{}{}
			}
		}

		return true
	})

	return u
}

func isImportDecl(n *lst.Node) bool {
	if n.Kind != lst.KindGenDecl {
		return false
	}

	tok := n.FirstToken()

	return tok != nil && tok.Text == "import"
}

func importSpecs(decl *lst.Node) []*lst.Node {
	var specs []*lst.Node

	for _, child := range decl.Children() {
		if child.Kind == lst.KindImportSpec {
			specs = append(specs, child)
		}
	}

	return specs
}

// importPath returns the unquoted path of an import spec.
func importPath(spec *lst.Node) string {
	for _, child := range spec.Children() {
		if child.Kind == lst.KindBasicLit {
			if p, err := strconv.Unquote(child.Text()); err == nil {
				return p
			}

			return child.Text()
		}
	}

	return ""
}

// localName returns the explicit name of an import spec, if any.
func localName(spec *lst.Node) string {
	for _, child := range spec.Children() {
		if child.Kind == lst.KindIdent {
			return child.Text()
		}
	}

	return ""
}

func (u usage) uses(spec *lst.Node) bool {
	name := localName(spec)
	if name == "_" || name == "." {
		return true
	}

	if spec.Symbol != "" {
		_, ok := u.symbols[spec.Symbol]
		return ok
	}

	if name == "" {
		name = guessPackageName(importPath(spec))
		if name == "" {
			return true
		}
	}

	_, ok := u.names[name]

	return ok
}

// guessPackageName derives the default package name from an import path.
// It returns "" when the name cannot be derived with confidence.
func guessPackageName(importPath string) string {
	base := path.Base(importPath)
	if strings.HasPrefix(base, "v") {
		if _, err := strconv.Atoi(base[1:]); err == nil {
			return ""
		}
	}

	if strings.ContainsAny(base, "-.") {
		return ""
	}

	return base
}

func removeUnusedImports(tree *lst.Tree) error {
	if tree.Root == nil {
		return nil
	}

	u := collectUsage(tree)

	for _, decl := range tree.Root.Children() {
		if !isImportDecl(decl) {
			continue
		}

		specs := importSpecs(decl)
		removed := 0

		for _, spec := range specs {
			if u.uses(spec) {
				continue
			}

			keepTrailingComment(decl, spec)
			decl.RemoveChild(spec)
			removed++
		}

		if removed > 0 && removed == len(specs) {
			keepLeadingComments(tree, decl)
			tree.Root.RemoveChild(decl)
		}
	}

	return nil
}

// firstToken returns the first token printed for e.
func firstToken(e lst.Elem) *lst.Token {
	switch x := e.(type) {
	case *lst.Token:
		return x
	case *lst.Node:
		return x.FirstToken()
	}

	return nil
}

// trailingComment returns the part of s on the line it starts on when that
// part holds a comment. Such a comment belongs to the element before s.
func trailingComment(s lst.Space) lst.Space {
	line, _, found := strings.Cut(string(s), "\n")
	if !found || !lst.Space(line).HasComments() {
		return ""
	}

	return lst.Space(line)
}

// keepTrailingComment moves the trailing comment of the element before spec
// onto the element after it, so removing spec does not drop the comment.
func keepTrailingComment(decl, spec *lst.Node) {
	comment := trailingComment(spec.Prefix())
	if comment == "" {
		return
	}

	for i, e := range decl.Elems {
		if e != lst.Elem(spec) || i+1 >= len(decl.Elems) {
			continue
		}

		if next := firstToken(decl.Elems[i+1]); next != nil {
			next.Prefix = comment + next.Prefix
		}
	}
}

// keepLeadingComments moves the comments in front of decl, such as a trailing
// comment on the package clause or a //go:generate line, onto whatever
// follows decl.
func keepLeadingComments(tree *lst.Tree, decl *lst.Node) {
	prefix := decl.Prefix()
	if !prefix.HasComments() {
		return
	}

	kept := lst.Space(strings.TrimRight(string(prefix), " \t\r\n"))

	for i, e := range tree.Root.Elems {
		if e != lst.Elem(decl) {
			continue
		}

		if i+1 < len(tree.Root.Elems) {
			if next := firstToken(tree.Root.Elems[i+1]); next != nil {
				next.Prefix = kept + next.Prefix
				return
			}
		}
	}

	tree.EOF = kept + tree.EOF
}

func orderImports(tree *lst.Tree) error {
	if tree.Root == nil {
		return nil
	}

	for _, decl := range tree.Root.Children() {
		if !isImportDecl(decl) {
			continue
		}

		for _, group := range importGroups(decl) {
			sortGroup(decl, group)
		}
	}

	return nil
}

// importGroups returns the element indexes of the specs of decl, split into
// groups separated by blank lines.
func importGroups(decl *lst.Node) [][]int {
	var (
		groups  [][]int
		current []int
	)

	for i, e := range decl.Elems {
		spec, ok := e.(*lst.Node)
		if !ok || spec.Kind != lst.KindImportSpec {
			continue
		}

		if len(current) > 0 && spec.Prefix().Lines() > 1 {
			groups = append(groups, current)
			current = nil
		}

		current = append(current, i)
	}

	if len(current) > 0 {
		groups = append(groups, current)
	}

	return groups
}

// sortGroup reorders the specs at the given element indexes. The prefixes stay
// in their slots so the layout is unchanged; groups whose prefixes carry
// comments are left alone since the comments would detach from their spec.
func sortGroup(decl *lst.Node, indexes []int) {
	if len(indexes) < 2 {
		return
	}

	specs := make([]*lst.Node, len(indexes))
	prefixes := make([]lst.Space, len(indexes))

	for i, idx := range indexes {
		specs[i], _ = decl.Elems[idx].(*lst.Node)
		prefixes[i] = specs[i].Prefix()

		if prefixes[i].HasComments() || strings.Contains(specs[i].Text(), "//") || strings.Contains(specs[i].Text(), "/*") {
			return
		}
	}

	if last := indexes[len(indexes)-1]; last+1 < len(decl.Elems) {
		if next := firstToken(decl.Elems[last+1]); next != nil && trailingComment(next.Prefix) != "" {
			return
		}
	}

	sort.SliceStable(specs, func(i, j int) bool {
		return importPath(specs[i]) < importPath(specs[j])
	})

	for i, idx := range indexes {
		specs[i].SetPrefix(prefixes[i])
		decl.Elems[idx] = specs[i]
	}
}
