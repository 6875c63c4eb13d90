package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"fundrecon/pkg/compare"
	"fundrecon/pkg/readers"
	"fundrecon/report"
)

// batchPair is one independent reconciliation in a batch run.
type batchPair struct {
	name     string
	internal string
	fund     string
}

// newBatchCommand creates the command running several fund reconciliations
// in parallel. Each pair is a fully independent comparison with its own
// result; no state is shared between them.
func newBatchCommand() *cobra.Command {
	options := &CompareOptions{}
	var pairs []string
	var reportDir string
	var workers int

	cmd := &cobra.Command{
		Use:   "batch [flags] --pair internal.csv=fund.csv ...",
		Short: "Run several fund comparisons in parallel",
		Long: `The batch command validates multiple funds in one run. Each --pair
names an internal dataset and the fund report to reconcile it with.
Reports are written per pair into --report-dir.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(pairs) == 0 {
				return fmt.Errorf("at least one --pair is required")
			}
			parsed, err := parsePairs(pairs)
			if err != nil {
				return err
			}
			return runBatch(cmd, options, parsed, reportDir, workers)
		},
	}

	addCompareFlags(cmd, options)
	cmd.Flags().StringSliceVar(&pairs, "pair", nil, "Comparison pair, internal.csv=fund.csv (repeatable)")
	cmd.Flags().StringVar(&reportDir, "report-dir", "reports", "Directory for per-pair JSON reports")
	cmd.Flags().IntVar(&workers, "workers", 4, "Number of comparisons to run concurrently")

	return cmd
}

func parsePairs(raw []string) ([]batchPair, error) {
	parsed := make([]batchPair, 0, len(raw))
	for _, p := range raw {
		parts := strings.SplitN(p, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid --pair value %q, expected internal.csv=fund.csv", p)
		}
		name := strings.TrimSuffix(filepath.Base(parts[1]), filepath.Ext(parts[1]))
		parsed = append(parsed, batchPair{name: name, internal: parts[0], fund: parts[1]})
	}
	return parsed, nil
}

func runBatch(cmd *cobra.Command, options *CompareOptions, pairs []batchPair, reportDir string, workers int) error {
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

	if err := os.MkdirAll(reportDir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	fmt.Printf("Running %d comparisons (%d workers)...\n", len(pairs), workers)

	var mu sync.Mutex
	results := make(map[string]*compare.Result, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, pair := range pairs {
		g.Go(func() error {
			df1, err := loadTable(gctx, readers.Config{Type: "csv", Path: pair.internal, Delimiter: delimiterRune(options.Delimiter)})
			if err != nil {
				return fmt.Errorf("%s: failed to load internal dataset: %w", pair.name, err)
			}
			df2, err := loadTable(gctx, readers.Config{Type: "csv", Path: pair.fund, Delimiter: delimiterRune(options.Delimiter)})
			if err != nil {
				return fmt.Errorf("%s: failed to load fund report: %w", pair.name, err)
			}

			result, err := comparator.Compare(df1, df2, compare.Type(options.Type))
			if err != nil {
				return fmt.Errorf("%s: %w", pair.name, err)
			}

			gen := report.JSONReportGenerator{}
			path := filepath.Join(reportDir, pair.name+".json")
			if err := gen.SaveReportToFile(result, path); err != nil {
				return fmt.Errorf("%s: failed to save report: %w", pair.name, err)
			}

			mu.Lock()
			results[pair.name] = result
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Println("\nBatch Summary:")
	for _, pair := range pairs {
		s := results[pair.name].Summary
		fmt.Printf("  %-30s match %6.2f%%  different %d  missing %d/%d\n",
			pair.name, s.MatchPercentage, s.DifferentRows, s.MissingInDf1, s.MissingInDf2)
	}
	return nil
}
