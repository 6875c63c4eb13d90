package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"fundrecon/config"
	"fundrecon/pkg/compare"
	"fundrecon/pkg/readers"
	"fundrecon/pkg/table"
	"fundrecon/report"
)

// CompareOptions represents the options shared by the comparison commands.
type CompareOptions struct {
	Type             string
	KeyColumns       []string
	IgnoreColumns    []string
	Tolerance        float64
	IgnoreCase       bool
	IgnoreWhitespace bool
	ConfigPath       string
	OutputFormat     string
	OutputPath       string
	CSVExport        string
	DisplayLimit     int
	Delimiter        string
}

// addCompareFlags registers the shared comparison flags.
func addCompareFlags(cmd *cobra.Command, options *CompareOptions) {
	cmd.Flags().StringVarP(&options.Type, "type", "t", "full", "Comparison type (full, schema, statistical, subset)")
	cmd.Flags().StringSliceVar(&options.KeyColumns, "key", nil, "Key columns defining row identity (e.g. --key NumeroContrato)")
	cmd.Flags().StringSliceVar(&options.IgnoreColumns, "ignore", nil, "Columns to ignore in comparison")
	cmd.Flags().Float64Var(&options.Tolerance, "tolerance", 1e-10, "Tolerance for floating point comparisons")
	cmd.Flags().BoolVar(&options.IgnoreCase, "ignore-case", false, "Case-insensitive string comparison")
	cmd.Flags().BoolVar(&options.IgnoreWhitespace, "ignore-whitespace", true, "Trim surrounding whitespace before string comparison")
	cmd.Flags().StringVarP(&options.ConfigPath, "config", "c", "", "Comparison configuration file (YAML or JSON)")
	cmd.Flags().StringVarP(&options.OutputFormat, "format", "f", "console", "Output format (console, json, html)")
	cmd.Flags().StringVarP(&options.OutputPath, "output", "o", "", "Output path for the report")
	cmd.Flags().StringVar(&options.CSVExport, "export-differences", "", "Export flattened cell differences to a CSV file")
	cmd.Flags().IntVar(&options.DisplayLimit, "display-limit", 100, "Limit the number of differing rows rendered in reports")
	cmd.Flags().StringVar(&options.Delimiter, "delimiter", ",", "CSV field delimiter")
}

// comparisonConfig merges a configuration file (if given) with flags.
// Flags changed on the command line win over the file.
func comparisonConfig(cmd *cobra.Command, options *CompareOptions) (config.Comparison, error) {
	cfg := config.Default()

	if options.ConfigPath != "" {
		fileCfg, err := config.Load(options.ConfigPath)
		if err != nil {
			return config.Comparison{}, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = fileCfg
	}

	if cmd.Flags().Changed("tolerance") || options.ConfigPath == "" {
		cfg.FloatTolerance = options.Tolerance
	}
	if cmd.Flags().Changed("ignore-case") || options.ConfigPath == "" {
		cfg.IgnoreCase = options.IgnoreCase
	}
	if cmd.Flags().Changed("ignore-whitespace") || options.ConfigPath == "" {
		cfg.IgnoreWhitespace = options.IgnoreWhitespace
	}
	if len(options.KeyColumns) > 0 {
		cfg.KeyColumns = options.KeyColumns
	}
	if len(options.IgnoreColumns) > 0 {
		cfg.IgnoreColumns = options.IgnoreColumns
	}

	return cfg, nil
}

// newCompareCommand creates the compare command for two CSV files.
func newCompareCommand() *cobra.Command {
	options := &CompareOptions{}

	cmd := &cobra.Command{
		Use:   "compare [flags] INTERNAL_CSV FUND_CSV",
		Short: "Compare two CSV datasets and report discrepancies",
		Long: `The compare command reconciles two CSV datasets matched by key columns.

The first file is treated as the internal dataset, the second as the
fund report. Every discrepancy is classified: missing keys per side,
schema/type mismatches, numeric differences outside tolerance and text
differences.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(options.KeyColumns) == 0 && options.ConfigPath == "" && options.Type == "full" {
				fmt.Println("WARNING: No key columns specified. Full comparison requires --key, e.g. --key NumeroContrato")
			}
			return runCompare(cmd, options, args[0], args[1])
		},
	}

	addCompareFlags(cmd, options)
	return cmd
}

// runCompare loads both CSV files and runs the engine.
func runCompare(cmd *cobra.Command, options *CompareOptions, path1, path2 string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := comparisonConfig(cmd, options)
	if err != nil {
		return err
	}

	comparator, err := compare.New(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Comparing:\n  Internal: %s\n  Fund:     %s\n", path1, path2)
	if len(cfg.KeyColumns) > 0 {
		fmt.Printf("Key columns: %s\n", strings.Join(cfg.KeyColumns, ", "))
	}

	sp := newSpinner("Loading datasets...")
	sp.Start()

	df1, err := loadTable(ctx, readers.Config{Type: "csv", Path: path1, Delimiter: delimiterRune(options.Delimiter)})
	if err != nil {
		sp.Stop()
		return fmt.Errorf("failed to load %s: %w", path1, err)
	}
	df2, err := loadTable(ctx, readers.Config{Type: "csv", Path: path2, Delimiter: delimiterRune(options.Delimiter)})
	if err != nil {
		sp.Stop()
		return fmt.Errorf("failed to load %s: %w", path2, err)
	}

	sp.Suffix = " Computing differences..."
	result, err := comparator.Compare(df1, df2, compare.Type(options.Type))
	sp.Stop()
	if err != nil {
		return err
	}

	return emitResult(result, options)
}

// loadTable creates a loader and materializes its table.
func loadTable(ctx context.Context, cfg readers.Config) (*table.Table, error) {
	loader, err := readers.DefaultFactory.Create(cfg)
	if err != nil {
		return nil, err
	}
	defer loader.Close()
	return loader.Load(ctx)
}

// emitResult renders the result per the output options.
func emitResult(result *compare.Result, options *CompareOptions) error {
	printSummary(result, os.Stdout)

	if options.CSVExport != "" {
		if err := report.WriteDifferencesCSV(result, options.CSVExport); err != nil {
			return fmt.Errorf("failed to export differences: %w", err)
		}
		fmt.Printf("Differences exported to %s\n", options.CSVExport)
	}

	switch options.OutputFormat {
	case "console":
		return nil
	case "json":
		gen := report.JSONReportGenerator{}
		if options.OutputPath == "" {
			data, err := gen.GenerateReport(result)
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}
		if err := gen.SaveReportToFile(result, options.OutputPath); err != nil {
			return err
		}
	case "html":
		gen := report.HTMLReportGenerator{DisplayLimit: options.DisplayLimit}
		if options.OutputPath == "" {
			return fmt.Errorf("--output is required for html format")
		}
		if err := gen.SaveReportToFile(result, options.OutputPath); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported output format: %s", options.OutputFormat)
	}

	fmt.Printf("Report written to %s\n", options.OutputPath)
	return nil
}

// printSummary prints the comparison summary to the given writer.
func printSummary(result *compare.Result, w io.Writer) {
	s := result.Summary
	fmt.Fprintln(w, "\nComparison Summary:")
	fmt.Fprintf(w, "  Internal rows:  %d\n", s.TotalRowsDf1)
	fmt.Fprintf(w, "  Fund rows:      %d\n", s.TotalRowsDf2)
	fmt.Fprintf(w, "  Common rows:    %d\n", s.CommonRows)
	fmt.Fprintf(w, "  Identical:      %d\n", s.IdenticalRows)
	fmt.Fprintf(w, "  Different:      %d\n", s.DifferentRows)
	fmt.Fprintf(w, "  Missing keys:   %d internal, %d fund\n", s.MissingInDf1, s.MissingInDf2)
	if s.DuplicateKeysDf1 > 0 || s.DuplicateKeysDf2 > 0 {
		fmt.Fprintf(w, "  Duplicate keys: %d internal, %d fund\n", s.DuplicateKeysDf1, s.DuplicateKeysDf2)
	}
	if s.CommonRows > 0 {
		fmt.Fprintf(w, "  Match:          %.2f%%\n", s.MatchPercentage)
		fmt.Fprintf(w, "  Coverage:       %.2f%%\n", s.CoveragePercentage)
	}
	if result.ComparisonType == compare.Subset {
		fmt.Fprintf(w, "  Subset:         %v (%d of %d unique rows matched)\n", s.IsSubset, s.MatchingRows, s.UniqueRowsDf1)
	}

	kd := compare.ExtractKeyDifferences(result)
	if kd.TypeMismatches > 0 {
		fmt.Fprintf(w, "  Type mismatches: %d columns\n", kd.TypeMismatches)
	}
	if kd.SignificantNumeric > 0 {
		fmt.Fprintf(w, "  Significant numeric differences: %d\n", kd.SignificantNumeric)
	}
}

// newSpinner creates the progress spinner used by long-running commands.
func newSpinner(suffix string) *spinner.Spinner {
	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	sp.Suffix = " " + suffix
	return sp
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("\nCancelling operation...")
		cancel()
	}()

	return ctx, cancel
}

func delimiterRune(s string) rune {
	if s == "" {
		return ','
	}
	if s == "\\t" || s == "tab" {
		return '\t'
	}
	return []rune(s)[0]
}
