package compare

import (
	"strings"

	"fundrecon/pkg/table"
)

// compareSubset checks whether the first table's rows, restricted to the
// shared columns and deduplicated, are all contained in the second.
// Used when row-level alignment is impractical.
func (c *Comparator) compareSubset(df1, df2 *table.Table, cols []string, sum *Summary) {
	if len(cols) == 0 {
		sum.IsSubset = false
		return
	}

	rows1 := distinctRows(df1, cols, c)
	rows2 := distinctRows(df2, cols, c)

	matching := 0
	for row := range rows1 {
		if _, ok := rows2[row]; ok {
			matching++
		}
	}

	sum.IsSubset = matching == len(rows1)
	sum.UniqueRowsDf1 = len(rows1)
	sum.UniqueRowsDf2 = len(rows2)
	sum.MatchingRows = matching
}

// distinctRows renders each row restricted to cols as a single string
// and deduplicates. String cells go through the configured normalization
// so subset checks honor the same policy as cell comparison.
func distinctRows(t *table.Table, cols []string, c *Comparator) map[string]struct{} {
	colIdx := make([]int, len(cols))
	for i, col := range cols {
		colIdx[i] = t.ColumnIndex(col)
	}

	rows := make(map[string]struct{}, t.NumRows())
	for row := 0; row < t.NumRows(); row++ {
		var sb strings.Builder
		for i, ci := range colIdx {
			if i > 0 {
				sb.WriteString("\x1f")
			}
			v := t.Value(row, ci)
			if v.Kind() == table.KindString {
				sb.WriteString(c.normalize(v.Str()))
			} else {
				sb.WriteString(v.Format())
			}
		}
		rows[sb.String()] = struct{}{}
	}
	return rows
}
