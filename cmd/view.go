package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mouse-blink/gorewrite/internal/domain"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "View the latest run",
		Long:  "View the reports of the latest run stored in the run database.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, true, func(ctx context.Context, w domain.Workflow) error {
				return w.View(ctx)
			})
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
