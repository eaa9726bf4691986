package main

import (
	"github.com/aretw0/spindle"
	"github.com/aretw0/spindle/internal/presentation/tui"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List the available node types",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng := spindle.New()
		return tui.PrintNodeTypes(cmd.OutOrStdout(), eng.Registry().Descriptors(), termProfile(cmd))
	},
}

func init() {
	rootCmd.AddCommand(nodesCmd)
}

// termProfile detects the color support of the command output.
func termProfile(cmd *cobra.Command) termenv.Profile {
	return termenv.NewOutput(cmd.OutOrStdout()).Profile
}
