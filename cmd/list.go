package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mouse-blink/gorewrite/internal/domain"
)

const listLongDescription = `List the recipes available to run: the built-in recipes and the script
recipes (*.star) found in the recipes directory.`

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available recipes",
		Long:  listLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, false, func(ctx context.Context, w domain.Workflow) error {
				return w.List(ctx)
			})
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
}
