package recipe

import (
	"github.com/mouse-blink/gorewrite/internal/lst"
)

// UseAnyID identifies the interface{} to any recipe.
const UseAnyID = "gorewrite.UseAny"

func init() {
	Register(Definition{
		Name:    UseAnyID,
		Display: "Use any",
		About:   "Replaces the empty interface type interface{} with the predeclared alias any.",
		Apply:   useAny,
	})
}

func useAny(tree *lst.Tree) error {
	if shadowsAny(tree) {
		return nil
	}

	for _, n := range tree.Find(lst.KindInterfaceType) {
		if isEmptyInterface(n) {
			n.Replace(lst.KindIdent, "any")
			n.Symbol = "any"
		}
	}

	return nil
}

// Parents under which an "any" identifier declares a new name.
var declaringKinds = map[lst.Kind]struct{}{
	"TypeSpec":  {},
	"ValueSpec": {},
	"FuncDecl":  {},
	"Field":     {},
}

// shadowsAny reports whether the file refers to or declares an "any" other
// than the predeclared one.
func shadowsAny(tree *lst.Tree) bool {
	shadowed := false

	tree.Walk(func(n, parent *lst.Node) bool {
		if n.Kind != lst.KindIdent || n.Text() != "any" {
			return !shadowed
		}

		if n.Symbol != "" && n.Symbol != "any" {
			shadowed = true
		}

		if parent != nil && n.Symbol == "" {
			if _, ok := declaringKinds[parent.Kind]; ok && parent.Children()[0] == n {
				shadowed = true
			}
		}

		return !shadowed
	})

	return shadowed
}

func isEmptyInterface(n *lst.Node) bool {
	for _, child := range n.Children() {
		if child.Kind != lst.KindFieldList {
			continue
		}

		if len(child.Children()) > 0 {
			return false
		}

		for _, tok := range child.Tokens() {
			if tok.Prefix.HasComments() {
				return false
			}
		}

		return true
	}

	return false
}
