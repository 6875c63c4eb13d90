package compare

import (
	"sort"

	"fundrecon/pkg/table"
)

// compareSchema diffs column sets and declared types between two tables.
// Mismatches are data, never errors. Ignored columns do not participate.
func (c *Comparator) compareSchema(df1, df2 *table.Table) SchemaDiff {
	diff := SchemaDiff{
		MissingInDf1:   []string{},
		MissingInDf2:   []string{},
		TypeMismatches: map[string]TypeMismatch{},
	}

	types1 := make(map[string]table.Kind)
	for _, col := range df1.Columns() {
		if c.cfg.IgnoresColumn(col.Name) {
			continue
		}
		types1[col.Name] = col.Type
	}

	for _, col := range df2.Columns() {
		if c.cfg.IgnoresColumn(col.Name) {
			continue
		}
		t1, ok := types1[col.Name]
		if !ok {
			diff.MissingInDf1 = append(diff.MissingInDf1, col.Name)
			continue
		}
		if t1 != col.Type {
			diff.TypeMismatches[col.Name] = TypeMismatch{
				Df1: t1.String(),
				Df2: col.Type.String(),
			}
		}
	}

	for _, col := range df1.Columns() {
		if c.cfg.IgnoresColumn(col.Name) {
			continue
		}
		if !df2.HasColumn(col.Name) {
			diff.MissingInDf2 = append(diff.MissingInDf2, col.Name)
		}
	}

	sort.Strings(diff.MissingInDf1)
	sort.Strings(diff.MissingInDf2)
	return diff
}

// commonColumns returns the non-ignored columns present in both tables,
// in table 1 order.
func (c *Comparator) commonColumns(df1, df2 *table.Table) []string {
	var cols []string
	for _, col := range df1.Columns() {
		if c.cfg.IgnoresColumn(col.Name) {
			continue
		}
		if df2.HasColumn(col.Name) {
			cols = append(cols, col.Name)
		}
	}
	return cols
}
