package main

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"subsidyscout/internal/analyzer"
	"subsidyscout/internal/bootstrap"
	"subsidyscout/internal/config"
)

// errAnalysisFailed makes the process exit non-zero after the error
// result has been printed.
var errAnalysisFailed = errors.New("analysis failed")

// analyzerFactory is swapped in tests.
var analyzerFactory = func(cfg *config.Config, provider string, cmd *cobra.Command) (analyzer.Analyzer, error) {
	logger := bootstrap.NewLogger(cfg.Log, cmd.ErrOrStderr())
	app, err := bootstrap.Build(cfg, provider, logger)
	if err != nil {
		return nil, err
	}
	return app.Analyzer, nil
}

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <url>",
		Short: "Analyse one subsidy page and print the result as JSON",
		Long: `Analyse one subsidy page and print the result as JSON on stdout.
Logs go to stderr. The exit status is 1 when the result carries an error.`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	provider, _ := cmd.Flags().GetString("provider")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	an, err := analyzerFactory(cfg, provider, cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout := cfg.AnalysisTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res := an.AnalyzeSubsidy(ctx, args[0])

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if res.Failed() {
		return errAnalysisFailed
	}
	return nil
}

