package compare

import (
	"math"
	"strings"

	"fundrecon/pkg/table"
)

// significanceFactor marks numeric deltas worth highlighting in summaries:
// anything beyond this multiple of the tolerance.
const significanceFactor = 10

// compareCells walks the common set and classifies every differing cell.
// Only rows with at least one difference are materialized.
func (c *Comparator) compareCells(df1, df2 *table.Table, a alignment, cols []string) (map[string]map[string]CellDiff, int) {
	valueCols := make([]string, 0, len(cols))
	for _, col := range cols {
		if !c.cfg.IsKeyColumn(col) {
			valueCols = append(valueCols, col)
		}
	}

	col1 := make([]int, len(valueCols))
	col2 := make([]int, len(valueCols))
	for i, col := range valueCols {
		col1[i] = df1.ColumnIndex(col)
		col2[i] = df2.ColumnIndex(col)
	}

	diffs := make(map[string]map[string]CellDiff)
	identical := 0

	for _, key := range a.common {
		row1 := a.df1.rows[key]
		row2 := a.df2.rows[key]

		var rowDiffs map[string]CellDiff
		for i, col := range valueCols {
			v1 := df1.Value(row1, col1[i])
			v2 := df2.Value(row2, col2[i])

			if diff, differs := c.classifyCell(v1, v2); differs {
				if rowDiffs == nil {
					rowDiffs = make(map[string]CellDiff)
				}
				rowDiffs[col] = diff
			}
		}

		if rowDiffs == nil {
			identical++
		} else {
			diffs[key] = rowDiffs
		}
	}

	return diffs, identical
}

// classifyCell decides equal/different for one cell pair and classifies
// the difference. The kind switch is exhaustive over the closed value set.
func (c *Comparator) classifyCell(v1, v2 table.Value) (CellDiff, bool) {
	// Both null: equal, never reported.
	if v1.IsNull() && v2.IsNull() {
		return CellDiff{}, false
	}

	// Exactly one null: the side holding null is the one missing the value.
	if v1.IsNull() {
		return CellDiff{File1: v1, File2: v2, Class: ClassMissingInFile1}, true
	}
	if v2.IsNull() {
		return CellDiff{File1: v1, File2: v2, Class: ClassMissingInFile2}, true
	}

	// Numeric pair: tolerance-based, boundary inclusive.
	if v1.IsNumeric() && v2.IsNumeric() {
		f1, _ := v1.AsFloat()
		f2, _ := v2.AsFloat()
		delta := f1 - f2
		if math.Abs(delta) <= c.cfg.FloatTolerance {
			return CellDiff{}, false
		}
		return CellDiff{
			File1:       v1,
			File2:       v2,
			Class:       ClassNumeric,
			Delta:       delta,
			Significant: math.Abs(delta) > significanceFactor*c.cfg.FloatTolerance,
		}, true
	}

	// String pair: normalize, then exact.
	if v1.Kind() == table.KindString && v2.Kind() == table.KindString {
		if c.normalize(v1.Str()) == c.normalize(v2.Str()) {
			return CellDiff{}, false
		}
		return CellDiff{File1: v1, File2: v2, Class: ClassText}, true
	}

	// Boolean pair.
	if v1.Kind() == table.KindBool && v2.Kind() == table.KindBool {
		if v1.BoolVal() == v2.BoolVal() {
			return CellDiff{}, false
		}
		return CellDiff{File1: v1, File2: v2, Class: ClassText}, true
	}

	// Mismatched runtime kinds: always a difference, tolerance does not apply.
	return CellDiff{File1: v1, File2: v2, Class: ClassType}, true
}

// normalize applies the configured string normalization.
func (c *Comparator) normalize(s string) string {
	if c.cfg.IgnoreWhitespace {
		s = strings.TrimSpace(s)
	}
	if c.cfg.IgnoreCase {
		s = strings.ToLower(s)
	}
	return s
}
