// Package compare implements the reconciliation engine: key-based row
// alignment of two canonical tables, schema comparison, cell-level
// difference classification and statistical summarization.
package compare

import (
	"fundrecon/pkg/table"
)

// Type selects how much of the pipeline runs.
type Type string

const (
	Full        Type = "full"
	Schema      Type = "schema"
	Statistical Type = "statistical"
	Subset      Type = "subset"
)

// Class is the stable difference taxonomy. Naming follows the report
// orientation: file1 is the internal dataset, file2 the fund report.
type Class string

const (
	ClassMissingInFile1 Class = "missing_in_file1"
	ClassMissingInFile2 Class = "missing_in_file2"
	ClassNumeric        Class = "numeric_difference"
	ClassText           Class = "text_difference"
	ClassType           Class = "type_difference"
)

// CellDiff is one differing cell for a matched row.
type CellDiff struct {
	File1 table.Value `json:"file1_value"`
	File2 table.Value `json:"file2_value"`
	Class Class       `json:"classification"`

	// Delta is the signed difference (file1 - file2) for numeric cells.
	Delta float64 `json:"delta,omitempty"`

	// Significant marks numeric deltas that exceed a multiple of the
	// configured tolerance; used for summary highlighting only.
	Significant bool `json:"significant,omitempty"`
}

// TypeMismatch records the per-side declared type of a shared column.
type TypeMismatch struct {
	Df1 string `json:"df1"`
	Df2 string `json:"df2"`
}

// SchemaDiff compares column sets and declared types, independent of rows.
type SchemaDiff struct {
	// MissingInDf1 lists columns present only in table 2, MissingInDf2
	// the columns present only in table 1.
	MissingInDf1   []string                `json:"missing_in_df1"`
	MissingInDf2   []string                `json:"missing_in_df2"`
	TypeMismatches map[string]TypeMismatch `json:"type_mismatches"`
}

// Differences holds the structured detail of a comparison.
type Differences struct {
	Schema SchemaDiff `json:"schema"`

	// MissingInDf1 / MissingInDf2 are sorted key sets present on only one
	// side. MissingInDf2 holds keys found in table 1 but not table 2.
	MissingInDf1 []string `json:"missing_in_df1"`
	MissingInDf2 []string `json:"missing_in_df2"`

	// DifferentCells maps row key -> column name -> differing cell pair.
	// Rows with zero differing cells are counted but not materialized.
	DifferentCells map[string]map[string]CellDiff `json:"different_cells"`
}

// Summary carries the counts of a comparison run.
type Summary struct {
	TotalRowsDf1  int `json:"total_rows_df1"`
	TotalRowsDf2  int `json:"total_rows_df2"`
	CommonRows    int `json:"common_rows"`
	MissingInDf1  int `json:"missing_in_df1"`
	MissingInDf2  int `json:"missing_in_df2"`
	IdenticalRows int `json:"identical_rows"`
	DifferentRows int `json:"different_rows"`

	// Duplicate key occurrences per side. First occurrence wins for
	// comparison; the counts keep duplicates visible.
	DuplicateKeysDf1 int `json:"duplicate_keys_df1"`
	DuplicateKeysDf2 int `json:"duplicate_keys_df2"`

	// MatchPercentage is identical rows over common rows.
	MatchPercentage float64 `json:"match_percentage"`

	// CoveragePercentage is common rows over table 2 rows: how much of
	// the fund report the internal dataset covers.
	CoveragePercentage float64 `json:"coverage_percentage"`

	// Subset comparison fields.
	IsSubset      bool `json:"is_subset,omitempty"`
	UniqueRowsDf1 int  `json:"unique_rows_df1,omitempty"`
	UniqueRowsDf2 int  `json:"unique_rows_df2,omitempty"`
	MatchingRows  int  `json:"matching_rows,omitempty"`
}

// ColumnStats are per-column aggregates for one table.
type ColumnStats struct {
	Count   int     `json:"count"`
	Nulls   int     `json:"nulls"`
	Numeric bool    `json:"numeric"`
	Mean    float64 `json:"mean,omitempty"`
	Min     float64 `json:"min,omitempty"`
	Max     float64 `json:"max,omitempty"`

	// Distinct is the distinct-value count for categorical columns.
	Distinct int `json:"distinct,omitempty"`
}

// NumericDiff compares a numeric column's distribution across the tables.
type NumericDiff struct {
	MeanDifference float64 `json:"mean_difference"`
	Significant    bool    `json:"significant"`
}

// Statistics holds per-side aggregates and their distributional diff.
type Statistics struct {
	Df1                map[string]ColumnStats `json:"df1"`
	Df2                map[string]ColumnStats `json:"df2"`
	NumericDifferences map[string]NumericDiff `json:"numeric_differences"`
}

// Result is the engine's sole output: constructed once per invocation,
// read-only afterward, holds no external resources.
type Result struct {
	ComparisonType Type        `json:"comparison_type"`
	Summary        Summary     `json:"summary"`
	Differences    Differences `json:"differences"`
	Statistics     Statistics  `json:"statistics"`
}
