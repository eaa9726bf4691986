package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/spindle/internal/cli"
	"github.com/aretw0/spindle/internal/config"
	"github.com/aretw0/spindle/internal/logging"
	"github.com/aretw0/spindle/pkg/domain"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var rootCmd = &cobra.Command{
	Use:   "spindle",
	Short: "Spindle runs typed workflow graphs locally",
	Long:  `Spindle executes workflows of schema-validated nodes (inputs, merges, retrieval and LLM calls) and reports every run.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("env-file", "", "Load environment from this file instead of ./.env")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides SPINDLE_LOG_LEVEL")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (text, json); overrides SPINDLE_LOG_FORMAT")
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}

	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.LogFormat = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.NewWithFormat(os.Stderr, level, logging.Format(cfg.LogFormat)), nil
}

// loadApp builds the engine and stores selected by the configuration.
func loadApp(ctx context.Context, cmd *cobra.Command, hooks ...domain.LifecycleHooks) (*cli.App, *slog.Logger, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	app, err := cli.NewApp(ctx, cfg, logger, hooks...)
	if err != nil {
		return nil, nil, err
	}
	return app, logger, nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
