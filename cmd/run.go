package cmd

import (
	"context"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mouse-blink/gorewrite/internal/domain"
	m "github.com/mouse-blink/gorewrite/internal/model"
)

const runLongDescription = `Run the active recipes over the given packages.

By default the changes are reported and written as one patch file
(patch_path, default .gorewrite/rewrite.patch). --write rewrites the files in
place; --check fails when any file would change, for use in CI.

With --watch the packages are rewritten again whenever a Go file changes,
until the command is interrupted.

Active recipes come from --active-recipes, GOREWRITE_ACTIVE_RECIPES or the
active_recipes key of .gorewrite.yaml, in that order.`

var (
	runWriteFlag bool
	runCheckFlag bool
	runWatchFlag bool
	runTestsFlag bool
)

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [patterns...]",
		Short: "Run rewrite recipes",
		Long:  runLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			patterns := rebasePatterns(workDir, parsePatterns(args))

			mode := domain.ModeReport

			switch {
			case runWriteFlag:
				mode = domain.ModeWrite
			case runCheckFlag:
				mode = domain.ModeCheck
			}

			return withSession(cmd, true, func(ctx context.Context, w domain.Workflow) error {
				_, err := w.Run(ctx, domain.RunArgs{
					Dir:       cfg.ProjectRoot,
					Patterns:  patterns,
					Mode:      mode,
					Watch:     runWatchFlag,
					Tests:     runTestsFlag,
					PatchPath: m.Path(cfg.PatchPath),
				})

				return err
			})
		},
	}
	cmd.Flags().BoolVarP(&runWriteFlag, "write", "w", false, "write the rewritten files in place")
	cmd.Flags().BoolVar(&runCheckFlag, "check", false, "fail when any file would change")
	cmd.Flags().BoolVar(&runWatchFlag, "watch", false, "rewrite again whenever a Go file changes")
	cmd.Flags().BoolVar(&runTestsFlag, "tests", false, "include _test.go files")
	cmd.Flags().StringSlice("active-recipes", nil, "recipe ids to run, in order (comma separated)")
	cmd.Flags().Bool("disable", false, "load everything but run no recipes")
	cmd.Flags().String("patch", "", "patch file written in report and check mode")
	cmd.MarkFlagsMutuallyExclusive("write", "check")

	return cmd
}

// parsePatterns defaults to every package below the current directory.
func parsePatterns(args []string) []string {
	if len(args) == 0 {
		return []string{"./..."}
	}

	return append([]string(nil), args...)
}

// rebasePatterns makes the relative path patterns given in workDir relative
// to the project root, where the packages are loaded. Import path patterns
// are left alone.
func rebasePatterns(workDir string, patterns []string) []string {
	if workDir == "" || workDir == "." {
		return patterns
	}

	rebased := make([]string, 0, len(patterns))

	for _, p := range patterns {
		if !isRelativePattern(p) {
			rebased = append(rebased, p)
			continue
		}

		joined := path.Join(filepath.ToSlash(workDir), p)
		if !isRelativePattern(joined) {
			joined = "./" + joined
		}

		rebased = append(rebased, joined)
	}

	return rebased
}

func isRelativePattern(p string) bool {
	return p == "." || p == ".." || strings.HasPrefix(p, "./") || strings.HasPrefix(p, "../")
}

func init() {
	rootCmd.AddCommand(runCmd)
}
