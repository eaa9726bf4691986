package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/spindle"
	"github.com/aretw0/spindle/internal/cli"
	"github.com/aretw0/spindle/internal/presentation/tui"
	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/progress"
	"github.com/aretw0/spindle/pkg/workflow"
	"github.com/muesli/termenv"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <workflow>",
	Short: "Execute a workflow and print the run report",
	Long: `Loads a YAML or JSON workflow (or a directory of node documents), runs it with the given inputs and prints a report.
Interrupting the process (Ctrl+C) pauses the run; with a persistent run store it can be resumed with --resume.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile, _ := cmd.Flags().GetString("inputs")
		pairs, _ := cmd.Flags().GetStringArray("input")
		resumeID, _ := cmd.Flags().GetString("resume")
		showMetrics, _ := cmd.Flags().GetBool("metrics")
		progressMode, _ := cmd.Flags().GetString("progress")

		def, err := spindle.LoadDefinition(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Stop()

		var hooks []domain.LifecycleHooks
		switch progressMode {
		case "":
		case "text":
			hooks = append(hooks, progress.Hooks(progress.NewTextHandler(cmd.ErrOrStderr(), termenv.NewOutput(cmd.ErrOrStderr()).Profile), nil))
		case "json":
			hooks = append(hooks, progress.Hooks(progress.NewJSONHandler(cmd.ErrOrStderr()), nil))
		default:
			return fmt.Errorf("unknown progress mode %q (expected text or json)", progressMode)
		}

		app, logger, err := loadApp(sc, cmd, hooks...)
		if err != nil {
			return err
		}
		defer app.Close()

		inputs, err := app.Inputs.ParseInputs(inputFile, pairs)
		if err != nil {
			return err
		}

		var res *workflow.Result
		if resumeID != "" {
			res, err = app.Engine.Resume(sc, resumeID, def)
		} else {
			res, err = app.Engine.Run(sc, def, inputs)
		}
		if res == nil {
			return err
		}
		if err != nil {
			logger.Debug("run ended with error", "run_id", res.RunID, "err", err)
		}

		// Report from the store so persisted state is what the user sees.
		ctx := cmd.Context()
		run, loadErr := app.Engine.Store().LoadRun(ctx, res.RunID)
		if loadErr != nil {
			return errors.Join(err, loadErr)
		}
		tasks, loadErr := app.Engine.Store().ListTasks(ctx, res.RunID)
		if loadErr != nil {
			return errors.Join(err, loadErr)
		}

		tty := isTerminal(os.Stdout)
		if tty {
			tui.PrintBanner(cmd.OutOrStdout(), termProfile(cmd))
		}
		out, renderErr := tui.NewRenderer(tty)(tui.RunReport(run, tasks))
		if renderErr != nil {
			return renderErr
		}
		fmt.Fprint(cmd.OutOrStdout(), out)

		if sc.Signal() != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), ">>> Run paused. Resume with: spindle run %s --resume %s\n", args[0], res.RunID)
		}

		if showMetrics {
			families, gatherErr := app.Gatherer.Gather()
			if gatherErr != nil {
				return gatherErr
			}
			for _, mf := range families {
				if _, werr := expfmt.MetricFamilyToText(cmd.ErrOrStderr(), mf); werr != nil {
					return werr
				}
			}
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringArrayP("input", "i", nil, "Initial input as key=value (repeatable)")
	runCmd.Flags().String("inputs", "", "JSON file with the initial inputs")
	runCmd.Flags().String("resume", "", "Resume a paused or failed run by id")
	runCmd.Flags().Bool("metrics", false, "Print Prometheus metrics to stderr after the run")
	runCmd.Flags().String("progress", "", "Stream node events to stderr: text or json")
	runCmd.SilenceUsage = true
}
