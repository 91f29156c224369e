package recipe

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"

	"github.com/mouse-blink/gorewrite/internal/lst"
)

// ScriptExt is the file extension of script recipes.
const ScriptExt = ".star"

// LoadError reports a script recipe that could not be loaded.
type LoadError struct {
	File    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("recipes/%s: %s", filepath.Base(e.File), e.Message)
}

// Script is a recipe written in Starlark. The script defines:
//
//	id          = "team.RenameFoo"      # required
//	description = "..."                 # optional
//	kinds       = ["Ident"]             # node kinds passed to rewrite
//	def rewrite(node): ...              # returns new text, or None
//
// rewrite receives a struct with the fields kind, text, type, symbol, line
// and column. Returning a string replaces the node's text; the node keeps its
// prefix.
type Script struct {
	path        string
	id          string
	description string
	kinds       map[lst.Kind]struct{}
	rewrite     starlark.Callable
}

// ID returns the recipe identifier declared by the script.
func (s *Script) ID() string { return s.id }

// DisplayName returns the script file name.
func (s *Script) DisplayName() string { return filepath.Base(s.path) }

// Description returns the description declared by the script.
func (s *Script) Description() string { return s.description }

// Visit calls rewrite for every node of a matching kind.
func (s *Script) Visit(tree *lst.Tree) error {
	thread := newThread("rewrite:" + s.id)

	var err error

	tree.Walk(func(n, _ *lst.Node) bool {
		if err != nil {
			return false
		}

		if _, ok := s.kinds[n.Kind]; !ok {
			return true
		}

		var replaced bool

		replaced, err = s.apply(thread, n)

		// a replaced node is a leaf now
		return !replaced
	})

	return err
}

func (s *Script) apply(thread *starlark.Thread, n *lst.Node) (bool, error) {
	arg := starlarkstruct.FromStringDict(starlark.String("node"), starlark.StringDict{
		"kind":   starlark.String(n.Kind),
		"text":   starlark.String(n.Text()),
		"type":   starlark.String(n.Type),
		"symbol": starlark.String(n.Symbol),
		"line":   starlark.MakeInt(n.Line),
		"column": starlark.MakeInt(n.Column),
	})

	out, err := starlark.Call(thread, s.rewrite, starlark.Tuple{arg}, nil)
	if err != nil {
		return false, fmt.Errorf("%s: %w", s.id, err)
	}

	switch v := out.(type) {
	case starlark.NoneType:
		return false, nil
	case starlark.String:
		text := string(v)
		if text == n.Text() {
			return false, nil
		}

		n.Replace(n.Kind, text)

		return true, nil
	default:
		return false, fmt.Errorf("%s: rewrite must return a string or None, got %s", s.id, out.Type())
	}
}

func newThread(name string) *starlark.Thread {
	return &starlark.Thread{
		Name:  name,
		Print: func(_ *starlark.Thread, _ string) {},
	}
}

// LoadScript compiles a script recipe from source.
func LoadScript(path string, src []byte) (*Script, error) {
	thread := newThread("load:" + filepath.Base(path))

	globals, err := starlark.ExecFileOptions(&syntax.FileOptions{}, thread, path, src, nil)
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("starlark execution error: %v", err)}
	}

	script := &Script{path: path, kinds: make(map[lst.Kind]struct{})}

	id, ok := globals["id"].(starlark.String)
	if !ok || strings.TrimSpace(string(id)) == "" {
		return nil, &LoadError{File: path, Message: "id must be a non-empty string"}
	}

	script.id = string(id)

	if desc, ok := globals["description"].(starlark.String); ok {
		script.description = string(desc)
	}

	kinds, ok := globals["kinds"].(*starlark.List)
	if !ok || kinds.Len() == 0 {
		return nil, &LoadError{File: path, Message: "kinds must be a non-empty list"}
	}

	for i := range kinds.Len() {
		kind, ok := kinds.Index(i).(starlark.String)
		if !ok {
			return nil, &LoadError{File: path, Message: fmt.Sprintf("kinds[%d] must be a string", i)}
		}

		script.kinds[lst.Kind(kind)] = struct{}{}
	}

	fn, ok := globals["rewrite"].(starlark.Callable)
	if !ok {
		return nil, &LoadError{File: path, Message: "rewrite must be a function"}
	}

	script.rewrite = fn

	return script, nil
}

// LoadDir loads every script recipe in dir into reg, in file name order.
// A missing directory yields no recipes.
func LoadDir(reg *Registry, dir string) ([]*Script, error) {
	if dir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading recipes dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ScriptExt) {
			names = append(names, entry.Name())
		}
	}

	sort.Strings(names)

	scripts := make([]*Script, 0, len(names))

	for _, name := range names {
		path := filepath.Join(dir, name)

		src, err := os.ReadFile(path) //nolint:gosec // path is inside the recipes dir
		if err != nil {
			return nil, &LoadError{File: path, Message: fmt.Sprintf("failed to read file: %v", err)}
		}

		script, err := LoadScript(path, src)
		if err != nil {
			return nil, err
		}

		if err := reg.Register(script); err != nil {
			return nil, &LoadError{File: path, Message: err.Error()}
		}

		scripts = append(scripts, script)
	}

	return scripts, nil
}
