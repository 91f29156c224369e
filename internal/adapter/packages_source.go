package adapter

import (
	"context"
	"fmt"
	"go/token"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/tools/go/packages"

	m "github.com/mouse-blink/gorewrite/internal/model"
)

// LoadMode is the go/packages mode a round needs: syntax with type information.
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedImports

// PackagesSource presents the packages matched by a set of patterns as a
// single, final round, loaded through go/packages.
type PackagesSource struct {
	mu       sync.Mutex
	dir      string
	patterns []string
	tests    bool
	logger   *slog.Logger
	done     bool
}

// PackagesOption configures a PackagesSource.
type PackagesOption func(*PackagesSource)

// WithTests includes the test files of every matched package.
func WithTests(tests bool) PackagesOption {
	return func(s *PackagesSource) { s.tests = tests }
}

// WithSourceLogger sets the logger used to report package load errors.
func WithSourceLogger(logger *slog.Logger) PackagesOption {
	return func(s *PackagesSource) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewPackagesSource creates a source loading patterns relative to dir.
func NewPackagesSource(dir string, patterns []string, opts ...PackagesOption) *PackagesSource {
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	s := &PackagesSource{
		dir:      dir,
		patterns: patterns,
		logger:   slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Dir returns the directory patterns are resolved against.
func (s *PackagesSource) Dir() string {
	return s.dir
}

// Next loads the packages once and returns them as a final round. Later
// calls return io.EOF.
func (s *PackagesSource) Next(ctx context.Context) (m.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return m.Round{}, io.EOF
	}

	units, err := s.Load(ctx)
	if err != nil {
		return m.Round{}, err
	}

	s.done = true

	return m.Round{Number: 1, Units: units, Final: true}, nil
}

// Load runs go/packages and returns one unit per Go file, sorted by package
// path and then by file order within the package. Packages with errors are
// logged and still presented; the bridge works on whatever the host recovered.
func (s *PackagesSource) Load(ctx context.Context) ([]m.Unit, error) {
	fset := token.NewFileSet()
	cfg := &packages.Config{
		Mode:    LoadMode,
		Context: ctx,
		Dir:     s.dir,
		Tests:   s.tests,
		Fset:    fset,
	}

	pkgs, err := packages.Load(cfg, s.patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	sort.SliceStable(pkgs, func(i, j int) bool {
		if pkgs[i].PkgPath != pkgs[j].PkgPath {
			return pkgs[i].PkgPath < pkgs[j].PkgPath
		}

		return pkgs[i].ID < pkgs[j].ID
	})

	root, err := filepath.Abs(s.dir)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})

	var units []m.Unit

	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			s.logger.Warn("package error", slog.String("package", pkg.ID), slog.String("error", e.Error()))
		}

		for _, file := range pkg.Syntax {
			tf := fset.File(file.Pos())
			if tf == nil {
				continue
			}

			filename := tf.Name()
			if _, ok := seen[filename]; ok || filepath.Ext(filename) != ".go" {
				continue
			}

			rel, err := filepath.Rel(root, filename)
			if err != nil || strings.HasPrefix(rel, "..") {
				continue
			}

			seen[filename] = struct{}{}

			src, err := os.ReadFile(filename)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", rel, err)
			}

			units = append(units, m.Unit{
				ID:      m.UnitID(filepath.ToSlash(rel)),
				Package: pkg.PkgPath,
				Fset:    fset,
				File:    file,
				Src:     src,
				Info:    pkg.TypesInfo,
				Types:   pkg.Types,
			})
		}
	}

	s.logger.Debug("packages loaded", slog.Int("packages", len(pkgs)), slog.Int("units", len(units)))

	return units, nil
}
