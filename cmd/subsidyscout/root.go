package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subsidyscout",
		Short: "Find the requirements published on a subsidy page",
		Long: `subsidyscout crawls a government subsidy page, lets a language model pick
the relevant sub-pages and documents, and classifies the requirements it finds
into attestations (verifiable data fields) and non-attestations (documents,
plans and procedures).`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "config/config.yaml", "path to config file")
	cmd.PersistentFlags().String("provider", "", "llm provider override (openai, anthropic, google)")

	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
