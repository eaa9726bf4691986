package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/spindle"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <workflow>",
	Short: "Check a workflow for consistency",
	Long:  `Reports duplicate or unknown nodes, dangling links and cycles, then prints the execution layers.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := spindle.LoadDefinition(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := spindle.New().Validate(def); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		layers, err := def.Layers()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Workflow is valid! ✅")
		for i, layer := range layers {
			fmt.Fprintf(out, "  layer %d: %s\n", i, strings.Join(layer, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.SilenceUsage = true
}
