// Package adapter contains the host and infrastructure adapters of gorewrite:
// the Go toolchain hosts that present compilation units, and the filesystem
// and database adapters that persist what the recipes produced.
package adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	m "github.com/mouse-blink/gorewrite/internal/model"
)

// SourceFSAdapter abstracts the filesystem operations the workflow and the
// CLI rely on, so they can be tested without touching the disk.
type SourceFSAdapter interface {
	// FindProjectRoot searches for go.mod file walking up the directory tree.
	FindProjectRoot(startPath m.Path) (m.Path, error)

	// WriteResults writes the after tree of every changed result below root.
	WriteResults(ctx context.Context, root m.Path, results []m.Result) error

	// WritePatch writes the diffs of the changed results into one patch file.
	WritePatch(path m.Path, results []m.Result) error
}

// LocalSourceFSAdapter is the os backed SourceFSAdapter.
type LocalSourceFSAdapter struct {
	writers int
}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter instance ready to
// be wired into the workflow.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{writers: runtime.GOMAXPROCS(0)}
}

// FindProjectRoot searches for go.mod file walking up the directory tree.
func (a *LocalSourceFSAdapter) FindProjectRoot(startPath m.Path) (m.Path, error) {
	dir := string(startPath)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return m.Path(dir), nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found in any parent directory of %s", startPath)
		}

		dir = parent
	}
}

// WriteResults writes the after trees of changed results in place. When a
// unit changed in several rounds only its latest result is written.
func (a *LocalSourceFSAdapter) WriteResults(ctx context.Context, root m.Path, results []m.Result) error {
	latest := latestChanged(results)
	if len(latest) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(a.writers, 1))

	for _, result := range latest {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			path := a.unitPath(root, result.Unit)

			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("writing %s: %w", result.Unit, err)
			}

			if err := os.WriteFile(path, result.After.Print(), info.Mode().Perm()); err != nil {
				return fmt.Errorf("writing %s: %w", result.Unit, err)
			}

			return nil
		})
	}

	return g.Wait()
}

// WritePatch writes the unified diffs of changed results to path, creating
// its directory when needed.
func (a *LocalSourceFSAdapter) WritePatch(path m.Path, results []m.Result) error {
	var b strings.Builder

	for _, result := range latestChanged(results) {
		b.WriteString(result.Change.Diff)
	}

	if err := os.MkdirAll(filepath.Dir(string(path)), 0o750); err != nil {
		return fmt.Errorf("creating patch dir: %w", err)
	}

	if err := os.WriteFile(string(path), []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("writing patch: %w", err)
	}

	return nil
}

func (a *LocalSourceFSAdapter) unitPath(root m.Path, unit m.UnitID) string {
	if filepath.IsAbs(string(unit)) || root == "" {
		return string(unit)
	}

	return filepath.Join(string(root), filepath.FromSlash(string(unit)))
}

// latestChanged keeps the last changed result per unit, in order of first
// appearance.
func latestChanged(results []m.Result) []m.Result {
	index := make(map[m.UnitID]int)

	var latest []m.Result

	for _, result := range results {
		if !result.Changed() {
			continue
		}

		if i, ok := index[result.Unit]; ok {
			latest[i] = result
			continue
		}

		index[result.Unit] = len(latest)
		latest = append(latest, result)
	}

	return latest
}
