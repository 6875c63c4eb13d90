package compare

import (
	"math"

	"fundrecon/pkg/table"
)

// summarizeColumns computes independent per-column aggregates for one
// table: count/nulls/mean/min/max for numeric columns, distinct count
// for categorical ones. No row alignment involved.
func summarizeColumns(t *table.Table) map[string]ColumnStats {
	stats := make(map[string]ColumnStats, t.NumCols())

	for ci, col := range t.Columns() {
		cs := ColumnStats{Count: t.NumRows()}
		numeric := col.Type == table.KindInt || col.Type == table.KindFloat

		if numeric {
			cs.Numeric = true
			sum := 0.0
			n := 0
			cs.Min = math.Inf(1)
			cs.Max = math.Inf(-1)
			for row := 0; row < t.NumRows(); row++ {
				v := t.Value(row, ci)
				if v.IsNull() {
					cs.Nulls++
					continue
				}
				f, ok := v.AsFloat()
				if !ok {
					continue
				}
				sum += f
				n++
				cs.Min = math.Min(cs.Min, f)
				cs.Max = math.Max(cs.Max, f)
			}
			if n > 0 {
				cs.Mean = sum / float64(n)
			} else {
				cs.Min, cs.Max = 0, 0
			}
		} else {
			distinct := make(map[string]struct{})
			for row := 0; row < t.NumRows(); row++ {
				v := t.Value(row, ci)
				if v.IsNull() {
					cs.Nulls++
					continue
				}
				distinct[v.Format()] = struct{}{}
			}
			cs.Distinct = len(distinct)
		}

		stats[col.Name] = cs
	}
	return stats
}

// compareStatistics builds the per-side aggregates and the distributional
// diff for numeric columns shared by both tables.
func (c *Comparator) compareStatistics(df1, df2 *table.Table) Statistics {
	stats := Statistics{
		Df1:                summarizeColumns(df1),
		Df2:                summarizeColumns(df2),
		NumericDifferences: map[string]NumericDiff{},
	}

	for name, s1 := range stats.Df1 {
		if c.cfg.IgnoresColumn(name) || !s1.Numeric {
			continue
		}
		s2, ok := stats.Df2[name]
		if !ok || !s2.Numeric {
			continue
		}
		meanDiff := math.Abs(s1.Mean - s2.Mean)
		stats.NumericDifferences[name] = NumericDiff{
			MeanDifference: meanDiff,
			Significant:    meanDiff > c.cfg.FloatTolerance,
		}
	}
	return stats
}
