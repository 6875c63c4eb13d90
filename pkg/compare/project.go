package compare

import (
	"sort"

	"fundrecon/pkg/table"
)

// KeyDifferences is the reduced view of a Result: counts of the most
// relevant anomaly categories, suitable for a short status summary.
type KeyDifferences struct {
	MissingColumnsFile1 int  `json:"missing_columns_file1,omitempty"`
	MissingColumnsFile2 int  `json:"missing_columns_file2,omitempty"`
	TypeMismatches      int  `json:"type_mismatches,omitempty"`
	MissingKeysFile1    int  `json:"missing_keys_file1,omitempty"`
	MissingKeysFile2    int  `json:"missing_keys_file2,omitempty"`
	DifferentRows       int  `json:"different_rows,omitempty"`
	DuplicateKeys       int  `json:"duplicate_keys,omitempty"`
	SignificantNumeric  int  `json:"significant_numeric_differences,omitempty"`
	RowCountMismatch    bool `json:"row_count_mismatch,omitempty"`
}

// ExtractKeyDifferences projects a Result down to its headline anomalies.
// Pure projection: no additional computation over the tables.
func ExtractKeyDifferences(r *Result) KeyDifferences {
	kd := KeyDifferences{
		MissingColumnsFile1: len(r.Differences.Schema.MissingInDf1),
		MissingColumnsFile2: len(r.Differences.Schema.MissingInDf2),
		TypeMismatches:      len(r.Differences.Schema.TypeMismatches),
		MissingKeysFile1:    len(r.Differences.MissingInDf1),
		MissingKeysFile2:    len(r.Differences.MissingInDf2),
		DifferentRows:       len(r.Differences.DifferentCells),
		DuplicateKeys:       r.Summary.DuplicateKeysDf1 + r.Summary.DuplicateKeysDf2,
		RowCountMismatch:    r.Summary.TotalRowsDf1 != r.Summary.TotalRowsDf2,
	}

	for _, cols := range r.Differences.DifferentCells {
		for _, diff := range cols {
			if diff.Class == ClassNumeric && diff.Significant {
				kd.SignificantNumeric++
			}
		}
	}
	for _, nd := range r.Statistics.NumericDifferences {
		if nd.Significant {
			kd.SignificantNumeric++
		}
	}
	return kd
}

// FlatDiff is one differing cell flattened for tabular export.
type FlatDiff struct {
	RowKey         string      `json:"row_key"`
	Column         string      `json:"column"`
	File1Value     table.Value `json:"file1_value"`
	File2Value     table.Value `json:"file2_value"`
	Classification Class       `json:"classification"`
}

// Flatten projects the per-cell differences into a flat, deterministic
// list (sorted by row key then column) suitable for tabular export.
func Flatten(r *Result) []FlatDiff {
	keys := make([]string, 0, len(r.Differences.DifferentCells))
	for key := range r.Differences.DifferentCells {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var flat []FlatDiff
	for _, key := range keys {
		cells := r.Differences.DifferentCells[key]
		cols := make([]string, 0, len(cells))
		for col := range cells {
			cols = append(cols, col)
		}
		sort.Strings(cols)

		for _, col := range cols {
			diff := cells[col]
			flat = append(flat, FlatDiff{
				RowKey:         key,
				Column:         col,
				File1Value:     diff.File1,
				File2Value:     diff.File2,
				Classification: diff.Class,
			})
		}
	}
	return flat
}
