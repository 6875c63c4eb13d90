// Package main provides the entry point for the fundrecon reconciliation tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fundrecon/logger"
	"fundrecon/version"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fundrecon",
		Short: "fundrecon reconciles fund reports against internal data",
		Long: `fundrecon compares a fund-provided report with an internally sourced
dataset, matching rows by contract identifier and classifying every
discrepancy (missing keys, type mismatches, numeric differences within
or outside tolerance, text differences) into a reproducible summary.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of fundrecon",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("fundrecon v%s (%s)\n", version.GetVersion(), version.GetBuildDate())
		},
	})

	rootCmd.AddCommand(newCompareCommand())
	rootCmd.AddCommand(newWarehouseCommand())
	rootCmd.AddCommand(newBatchCommand())
	rootCmd.AddCommand(newServeCommand())

	return rootCmd
}

// Main entry point for the fundrecon tool
func main() {
	defer logger.Sync()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
