// Package cmd provides the root command and CLI setup for gorewrite.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mouse-blink/gorewrite/internal/adapter"
	"github.com/mouse-blink/gorewrite/internal/config"
	"github.com/mouse-blink/gorewrite/internal/controller"
	"github.com/mouse-blink/gorewrite/internal/domain"
	m "github.com/mouse-blink/gorewrite/internal/model"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  = slog.New(slog.DiscardHandler)

	// workDir is the working directory relative to cfg.ProjectRoot.
	workDir = "."

	fsAdapter adapter.SourceFSAdapter = adapter.NewLocalSourceFSAdapter()
)

// Session is what a command needs from the outside world: a workflow and a
// way to release what the workflow holds.
type Session struct {
	Workflow domain.Workflow
	Close    func() error
}

// newSession builds the session of a command. Tests replace it.
var newSession = openSession

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gorewrite",
		Short: "Lossless source rewriting for Go",
		Long: `gorewrite runs rewrite recipes over Go source.

Each file is turned into a lossless syntax tree carrying type attribution,
the active recipes edit the tree, and the printed result is reported as a
diff, written back in place, or checked in CI.

Supports Go-style package patterns:
  - ./...          every package below the current directory
  - ./pkg/...      every package below pkg
  - ./cmd ./pkg    several packages`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("resolving working directory: %w", err)
			}

			var root string

			root, workDir = projectRoot(fsAdapter, cwd)

			cfg, err = config.Load(root, cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			logger = newLogger(cfg.Verbose)
			logger.Debug("project root", "path", cfg.ProjectRoot, "workdir", workDir)

			if cfg.FileUsed != "" {
				logger.Debug("using config file", "path", cfg.FileUsed)
			}

			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .gorewrite.yaml at the module root)")
	cmd.PersistentFlags().String("state", "", "path to the run database")
	cmd.PersistentFlags().String("recipes-dir", "", "directory holding script recipes (*.star)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// An interrupt cancels the command context, which ends watch runs.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// projectRoot returns the module root above cwd and cwd relative to it. Outside
// a module cwd is its own root.
func projectRoot(fs adapter.SourceFSAdapter, cwd string) (string, string) {
	root, err := fs.FindProjectRoot(m.Path(cwd))
	if err != nil {
		return cwd, "."
	}

	rel, err := filepath.Rel(string(root), cwd)
	if err != nil {
		return cwd, "."
	}

	return string(root), rel
}

// openSession wires the workflow for cmd. The run database is only opened
// for commands that read or write runs.
func openSession(cmd *cobra.Command, withStore bool) (Session, error) {
	var (
		store   adapter.ReportStore
		closeFn = func() error { return nil }
	)

	if withStore {
		s, err := adapter.OpenReportStore(m.Path(cfg.StatePath))
		if err != nil {
			return Session{}, err
		}

		store, closeFn = s, s.Close
	}

	ui := controller.NewUI(cmd, controller.IsTTY(os.Stdout))
	catalog := config.NewResolver(cfg, config.WithResolverLogger(logger))

	workflow := domain.NewWorkflow(
		fsAdapter,
		store,
		ui,
		catalog,
		domain.PackagesSourceFactory(logger),
		domain.WithWorkflowLogger(logger),
	)

	return Session{Workflow: workflow, Close: closeFn}, nil
}

// withSession opens a session, runs fn with it and closes it.
func withSession(cmd *cobra.Command, withStore bool, fn func(ctx context.Context, w domain.Workflow) error) error {
	session, err := newSession(cmd, withStore)
	if err != nil {
		return err
	}

	err = fn(cmd.Context(), session.Workflow)

	if session.Close != nil {
		if closeErr := session.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing session: %w", closeErr)
		}
	}

	return err
}
