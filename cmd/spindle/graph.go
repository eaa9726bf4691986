package main

import (
	"fmt"

	"github.com/aretw0/spindle"
	"github.com/aretw0/spindle/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <workflow>",
	Short: "Export the workflow graph visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the workflow.
With --run, nodes are colored by the task status of that run (needs a persistent run store).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := spindle.LoadDefinition(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		var overlay *graph.GraphOverlay
		if runID, _ := cmd.Flags().GetString("run"); runID != "" {
			app, _, err := loadApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			tasks, err := app.Engine.Store().ListTasks(cmd.Context(), runID)
			if err != nil {
				return err
			}
			overlay = graph.OverlayFromTasks(tasks)
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(def, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("run", "", "Color nodes with the task statuses of this run")
}
