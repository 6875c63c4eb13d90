package compare

import (
	"fmt"

	"go.uber.org/zap"

	"fundrecon/config"
	"fundrecon/logger"
	"fundrecon/pkg/table"
)

// state tracks the linear progression of one comparison invocation.
// There is no branching back; a failure is terminal and yields no Result.
type state int

const (
	stateInitialized state = iota
	stateSchemaCompared
	stateKeysAligned
	stateCellsCompared
	stateSummarized
	stateDone
	stateFailed
)

// Comparator runs reconciliations under one immutable comparison policy.
// It never mutates its input tables; independent invocations may run in
// parallel, each producing its own Result.
type Comparator struct {
	cfg config.Comparison
	log *zap.Logger
}

// New creates a comparator. Invalid policy values (negative tolerance,
// duplicate key columns) are rejected here, before any data is touched.
func New(cfg config.Comparison) (*Comparator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid comparison configuration: %w", err)
	}
	return &Comparator{cfg: cfg, log: logger.GetLogger()}, nil
}

// Config returns the comparison policy in effect.
func (c *Comparator) Config() config.Comparison { return c.cfg }

// Compare reconciles two tables and returns the finished Result.
// All-or-nothing: a configuration error yields no partial Result.
func (c *Comparator) Compare(df1, df2 *table.Table, typ Type) (*Result, error) {
	st := stateInitialized

	result := &Result{
		ComparisonType: typ,
		Differences: Differences{
			MissingInDf1:   []string{},
			MissingInDf2:   []string{},
			DifferentCells: map[string]map[string]CellDiff{},
		},
		Statistics: Statistics{
			Df1:                map[string]ColumnStats{},
			Df2:                map[string]ColumnStats{},
			NumericDifferences: map[string]NumericDiff{},
		},
	}
	result.Summary.TotalRowsDf1 = df1.NumRows()
	result.Summary.TotalRowsDf2 = df2.NumRows()

	// Schema comparison runs for every comparison type.
	result.Differences.Schema = c.compareSchema(df1, df2)
	st = stateSchemaCompared

	switch typ {
	case Schema:
		c.summarize(result, nil, 0)
		return c.finish(result, st)

	case Statistical:
		result.Statistics = c.compareStatistics(df1, df2)
		c.summarize(result, nil, 0)
		return c.finish(result, st)

	case Subset:
		c.compareSubset(df1, df2, c.commonColumns(df1, df2), &result.Summary)
		c.summarize(result, nil, 0)
		return c.finish(result, st)

	case Full:
		// fallthrough to row-level reconciliation below
	default:
		return nil, fmt.Errorf("unknown comparison type %q", typ)
	}

	if err := c.checkKeyColumns(df1, df2); err != nil {
		st = stateFailed
		c.log.Error("comparison failed before row processing",
			zap.Error(err),
			zap.Strings("key_columns", c.cfg.KeyColumns))
		return nil, err
	}

	align := c.alignKeys(df1, df2)
	st = stateKeysAligned
	c.log.Info("keys aligned",
		zap.Int("common", len(align.common)),
		zap.Int("missing_in_df1", len(align.missingInDf1)),
		zap.Int("missing_in_df2", len(align.missingInDf2)),
		zap.Int("duplicates_df1", align.df1.duplicates),
		zap.Int("duplicates_df2", align.df2.duplicates))

	result.Differences.MissingInDf1 = align.missingInDf1
	result.Differences.MissingInDf2 = align.missingInDf2

	cells, identical := c.compareCells(df1, df2, align, c.commonColumns(df1, df2))
	st = stateCellsCompared
	result.Differences.DifferentCells = cells

	result.Statistics = c.compareStatistics(df1, df2)

	c.summarize(result, &align, identical)
	st = stateSummarized

	return c.finish(result, st)
}

// summarize fills the count fields from the collected differences.
func (c *Comparator) summarize(r *Result, a *alignment, identical int) {
	s := &r.Summary
	s.MissingInDf1 = len(r.Differences.MissingInDf1)
	s.MissingInDf2 = len(r.Differences.MissingInDf2)
	s.DifferentRows = len(r.Differences.DifferentCells)
	s.IdenticalRows = identical

	if a != nil {
		s.CommonRows = len(a.common)
		s.DuplicateKeysDf1 = a.df1.duplicates
		s.DuplicateKeysDf2 = a.df2.duplicates
	}

	if s.CommonRows > 0 {
		s.MatchPercentage = float64(s.IdenticalRows) / float64(s.CommonRows) * 100
	}
	if s.TotalRowsDf2 > 0 {
		s.CoveragePercentage = float64(s.CommonRows) / float64(s.TotalRowsDf2) * 100
	}
}

func (c *Comparator) finish(r *Result, st state) (*Result, error) {
	if st == stateFailed {
		return nil, fmt.Errorf("comparison failed")
	}
	c.log.Info("comparison done",
		zap.String("type", string(r.ComparisonType)),
		zap.Int("different_rows", r.Summary.DifferentRows),
		zap.Float64("match_percentage", r.Summary.MatchPercentage))
	return r, nil
}
