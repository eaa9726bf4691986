package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/spf13/cobra"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List registered datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := loadApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		list, err := app.Datasets.ListDatasets(cmd.Context())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tFILE\tUPLOADED")
		for _, ds := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ds.ID, ds.Name, ds.FilePath, ds.UploadedAt.Format(time.RFC3339))
		}
		return tw.Flush()
	},
}

var datasetsAddCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Register a dataset file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		desc, _ := cmd.Flags().GetString("description")
		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		if name == "" {
			name = filepath.Base(path)
		}

		app, _, err := loadApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		ds := &domain.Dataset{Name: name, Description: desc, FilePath: path}
		if err := app.Datasets.CreateDataset(cmd.Context(), ds); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Dataset %s registered.\n", ds.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
	datasetsCmd.AddCommand(datasetsAddCmd)
	datasetsAddCmd.Flags().String("name", "", "Dataset name (defaults to the file name)")
	datasetsAddCmd.Flags().String("description", "", "Dataset description")
}
