package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fundrecon/pkg/compare"
	"fundrecon/pkg/readers"
)

// WarehouseOptions are the warehouse-side source options.
type WarehouseOptions struct {
	Driver     string
	Database   string
	Query      string
	QueryFile  string
	DriverPath string
	Mapping    []string
}

// newWarehouseCommand creates the command comparing a fund CSV against an
// internal warehouse query.
func newWarehouseCommand() *cobra.Command {
	options := &CompareOptions{}
	wh := &WarehouseOptions{}

	cmd := &cobra.Command{
		Use:   "warehouse [flags] FUND_CSV",
		Short: "Compare a fund report against an internal warehouse query",
		Long: `The warehouse command loads the internal dataset by running a query
against a warehouse (DuckDB or PostgreSQL via ADBC) and reconciles it
with the fund-provided CSV report.

The warehouse result must speak the report's column vocabulary; use
--map to rename source columns onto it, e.g.:

    fundrecon warehouse fund.csv \
        --driver duckdb --db internal.db \
        --query "SELECT contract_id, face_value FROM cessions" \
        --map contract_id=NumeroContrato --map face_value=ValorFace \
        --key NumeroContrato`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWarehouseCompare(cmd, options, wh, args[0])
		},
	}

	addCompareFlags(cmd, options)
	cmd.Flags().StringVar(&wh.Driver, "driver", "duckdb", "Warehouse driver (duckdb, postgres)")
	cmd.Flags().StringVar(&wh.Database, "db", "", "Database path (duckdb) or connection URI (postgres)")
	cmd.Flags().StringVar(&wh.Query, "query", "", "SQL query producing the internal dataset")
	cmd.Flags().StringVar(&wh.QueryFile, "query-file", "", "File containing the SQL query")
	cmd.Flags().StringVar(&wh.DriverPath, "driver-path", "", "ADBC driver library location (auto-detected if empty)")
	cmd.Flags().StringSliceVar(&wh.Mapping, "map", nil, "Source column renames, source=report (repeatable)")

	return cmd
}

func runWarehouseCompare(cmd *cobra.Command, options *CompareOptions, wh *WarehouseOptions, fundCSV string) error {
	ctx, cancel := signalContext()
	defer cancel()

	query := wh.Query
	if query == "" && wh.QueryFile != "" {
		data, err := os.ReadFile(wh.QueryFile)
		if err != nil {
			return fmt.Errorf("failed to read query file: %w", err)
		}
		query = string(data)
	}
	if query == "" {
		return fmt.Errorf("either --query or --query-file is required")
	}

	mapping, err := parseMapping(wh.Mapping)
	if err != nil {
		return err
	}

	cfg, err := comparisonConfig(cmd, options)
	if err != nil {
		return err
	}
	comparator, err := compare.New(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Comparing:\n  Internal: %s query on %s\n  Fund:     %s\n", wh.Driver, wh.Database, fundCSV)

	sp := newSpinner("Executing warehouse query...")
	sp.Start()

	df1, err := loadTable(ctx, readers.Config{
		Type:          wh.Driver,
		Path:          wh.Database,
		Query:         query,
		DriverPath:    wh.DriverPath,
		ColumnMapping: mapping,
	})
	if err != nil {
		sp.Stop()
		return fmt.Errorf("failed to load internal dataset: %w", err)
	}

	sp.Suffix = " Loading fund report..."
	df2, err := loadTable(ctx, readers.Config{Type: "csv", Path: fundCSV, Delimiter: delimiterRune(options.Delimiter)})
	if err != nil {
		sp.Stop()
		return fmt.Errorf("failed to load fund report: %w", err)
	}

	sp.Suffix = " Computing differences..."
	result, err := comparator.Compare(df1, df2, compare.Type(options.Type))
	sp.Stop()
	if err != nil {
		return err
	}

	return emitResult(result, options)
}

// parseMapping turns --map source=report pairs into a rename map.
func parseMapping(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	mapping := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid --map value %q, expected source=report", pair)
		}
		mapping[parts[0]] = parts[1]
	}
	return mapping, nil
}
