package compare

import (
	"fmt"
	"sort"
	"strings"

	"fundrecon/pkg/table"
)

// keyIndex maps row keys to row positions for one table. Duplicate keys
// keep the first occurrence; how many were discarded is recorded so the
// summary never hides them.
type keyIndex struct {
	rows       map[string]int
	order      []string
	duplicates int
}

// alignment is the row correspondence between the two tables.
type alignment struct {
	df1, df2 keyIndex

	// common holds keys present on both sides, in table 1 order.
	common []string

	// missingInDf1 are keys only in table 2; missingInDf2 only in table 1.
	missingInDf1 []string
	missingInDf2 []string
}

// checkKeyColumns verifies the configured key columns exist on both sides.
// An absent key column is a configuration error, not a data anomaly.
func (c *Comparator) checkKeyColumns(df1, df2 *table.Table) error {
	if len(c.cfg.KeyColumns) == 0 {
		return fmt.Errorf("key columns are required for row comparison")
	}
	for _, col := range c.cfg.KeyColumns {
		if !df1.HasColumn(col) {
			return fmt.Errorf("key column %q not found in first table", col)
		}
		if !df2.HasColumn(col) {
			return fmt.Errorf("key column %q not found in second table", col)
		}
	}
	return nil
}

// buildKeyIndex concatenates the key column values of every row.
// Multi-column keys join with ":" the way a composite key is rendered
// in reports.
func (c *Comparator) buildKeyIndex(t *table.Table) keyIndex {
	idx := keyIndex{rows: make(map[string]int, t.NumRows())}

	colIdx := make([]int, len(c.cfg.KeyColumns))
	for i, col := range c.cfg.KeyColumns {
		colIdx[i] = t.ColumnIndex(col)
	}

	for row := 0; row < t.NumRows(); row++ {
		var sb strings.Builder
		for i, ci := range colIdx {
			if i > 0 {
				sb.WriteString(":")
			}
			sb.WriteString(t.Value(row, ci).Format())
		}
		key := sb.String()
		if _, exists := idx.rows[key]; exists {
			idx.duplicates++
			continue
		}
		idx.rows[key] = row
		idx.order = append(idx.order, key)
	}
	return idx
}

// alignKeys establishes row correspondence between the two tables.
func (c *Comparator) alignKeys(df1, df2 *table.Table) alignment {
	a := alignment{
		df1:          c.buildKeyIndex(df1),
		df2:          c.buildKeyIndex(df2),
		missingInDf1: []string{},
		missingInDf2: []string{},
	}

	for _, key := range a.df1.order {
		if _, ok := a.df2.rows[key]; ok {
			a.common = append(a.common, key)
		} else {
			a.missingInDf2 = append(a.missingInDf2, key)
		}
	}
	for _, key := range a.df2.order {
		if _, ok := a.df1.rows[key]; !ok {
			a.missingInDf1 = append(a.missingInDf1, key)
		}
	}

	sort.Strings(a.missingInDf1)
	sort.Strings(a.missingInDf2)
	return a
}
