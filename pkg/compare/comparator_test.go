package compare

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundrecon/config"
	"fundrecon/logger"
	"fundrecon/pkg/table"
)

func TestMain(m *testing.M) {
	logger.SetLogPath(filepath.Join(os.TempDir(), "fundrecon-compare-test.log"))
	os.Exit(m.Run())
}

func buildTable(t *testing.T, cols []table.Column, rows [][]table.Value) *table.Table {
	t.Helper()
	tbl := table.New(cols)
	for _, row := range rows {
		require.NoError(t, tbl.AppendRow(row))
	}
	return tbl
}

func contractCols() []table.Column {
	return []table.Column{
		{Name: "contract_id", Type: table.KindString},
		{Name: "face_value", Type: table.KindFloat},
		{Name: "debtor", Type: table.KindString},
	}
}

func defaultComparator(t *testing.T, keys ...string) *Comparator {
	t.Helper()
	cfg := config.Default()
	cfg.KeyColumns = keys
	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func TestCompareIdenticalTables(t *testing.T) {
	rows := [][]table.Value{
		{table.String("K1"), table.Float(1000.50), table.String("Acme")},
		{table.String("K2"), table.Float(250.00), table.String("Beta")},
	}
	df1 := buildTable(t, contractCols(), rows)
	df2 := buildTable(t, contractCols(), rows)

	c := defaultComparator(t, "contract_id")
	result, err := c.Compare(df1, df2, Full)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Summary.CommonRows)
	assert.Equal(t, 2, result.Summary.IdenticalRows)
	assert.Equal(t, 0, result.Summary.DifferentRows)
	assert.Equal(t, 0, result.Summary.MissingInDf1)
	assert.Equal(t, 0, result.Summary.MissingInDf2)
	assert.Equal(t, 100.0, result.Summary.MatchPercentage)
	assert.Equal(t, 100.0, result.Summary.CoveragePercentage)
	assert.Empty(t, result.Differences.DifferentCells)
}

func TestMissingKeysOnBothSides(t *testing.T) {
	df1 := buildTable(t, contractCols(), [][]table.Value{
		{table.String("K1"), table.Float(100), table.String("Acme")},
		{table.String("K2"), table.Float(200), table.String("Beta")},
	})
	df2 := buildTable(t, contractCols(), [][]table.Value{
		{table.String("K1"), table.Float(100), table.String("Acme")},
		{table.String("K3"), table.Float(300), table.String("Gamma")},
	})

	c := defaultComparator(t, "contract_id")
	result, err := c.Compare(df1, df2, Full)
	require.NoError(t, err)

	// K3 exists only in the second table, K2 only in the first.
	assert.Equal(t, []string{"K3"}, result.Differences.MissingInDf1)
	assert.Equal(t, []string{"K2"}, result.Differences.MissingInDf2)
	assert.Equal(t, 1, result.Summary.CommonRows)
	assert.Equal(t, 1, result.Summary.IdenticalRows)

	// A missing key is never also reported as a cell difference.
	assert.NotContains(t, result.Differences.DifferentCells, "K2")
	assert.NotContains(t, result.Differences.DifferentCells, "K3")

	// Reversing the operands swaps the missing sets exactly.
	reversed, err := c.Compare(df2, df1, Full)
	require.NoError(t, err)
	assert.Equal(t, []string{"K2"}, reversed.Differences.MissingInDf1)
	assert.Equal(t, []string{"K3"}, reversed.Differences.MissingInDf2)
}

func TestNumericToleranceBoundaryIsInclusive(t *testing.T) {
	cfg := config.Default()
	cfg.KeyColumns = []string{"contract_id"}
	cfg.FloatTolerance = 0.01
	c, err := New(cfg)
	require.NoError(t, err)

	df1 := buildTable(t, contractCols(), [][]table.Value{
		{table.String("K1"), table.Float(100.00), table.String("Acme")},
		{table.String("K2"), table.Float(100.00), table.String("Beta")},
	})
	df2 := buildTable(t, contractCols(), [][]table.Value{
		{table.String("K1"), table.Float(100.01), table.String("Acme")}, // delta == tolerance
		{table.String("K2"), table.Float(100.02), table.String("Beta")}, // delta > tolerance
	})

	result, err := c.Compare(df1, df2, Full)
	require.NoError(t, err)

	assert.NotContains(t, result.Differences.DifferentCells, "K1")
	require.Contains(t, result.Differences.DifferentCells, "K2")

	diff := result.Differences.DifferentCells["K2"]["face_value"]
	assert.Equal(t, ClassNumeric, diff.Class)
	assert.InDelta(t, -0.02, diff.Delta, 1e-9)
}

func TestNumericDifferenceAtDefaultTolerance(t *testing.T) {
	// A one-millionth discrepancy in face value is beyond the default
	// tolerance and must surface as a numeric difference.
	df1 := buildTable(t, contractCols(), [][]table.Value{
		{table.String("K1"), table.Float(1000.000001), table.String("Acme")},
	})
	df2 := buildTable(t, contractCols(), [][]table.Value{
		{table.String("K1"), table.Float(1000.000002), table.String("Acme")},
	})

	c := defaultComparator(t, "contract_id")
	result, err := c.Compare(df1, df2, Full)
	require.NoError(t, err)

	require.Contains(t, result.Differences.DifferentCells, "K1")
	diff := result.Differences.DifferentCells["K1"]["face_value"]
	assert.Equal(t, ClassNumeric, diff.Class)
	assert.True(t, diff.Significant)

	// With a tolerance covering the delta the cells are equal.
	cfg := config.Default()
	cfg.KeyColumns = []string{"contract_id"}
	cfg.FloatTolerance = 1e-5
	loose, err := New(cfg)
	require.NoError(t, err)

	result, err = loose.Compare(df1, df2, Full)
	require.NoError(t, err)
	assert.Empty(t, result.Differences.DifferentCells)
}

func TestFaceValueToleranceScenario(t *testing.T) {
	cols := []table.Column{
		{Name: "NumeroContrato", Type: table.KindString},
		{Name: "ValorFace", Type: table.KindFloat},
	}
	df1 := buildTable(t, cols, [][]table.Value{
		{table.String("X1"), table.Float(100.00)},
	})
	df2 := buildTable(t, cols, [][]table.Value{
		{table.String("X1"), table.Float(100.0000001)},
	})

	cfg := config.Default()
	cfg.KeyColumns = []string{"NumeroContrato"}
	cfg.FloatTolerance = 1e-6
	c, err := New(cfg)
	require.NoError(t, err)

	result, err := c.Compare(df1, df2, Full)
	require.NoError(t, err)
	assert.Empty(t, result.Differences.DifferentCells)
	assert.Equal(t, 100.0, result.Summary.MatchPercentage)

	cfg.FloatTolerance = 1e-10
	c, err = New(cfg)
	require.NoError(t, err)

	result, err = c.Compare(df1, df2, Full)
	require.NoError(t, err)
	require.Contains(t, result.Differences.DifferentCells, "X1")
	diff := result.Differences.DifferentCells["X1"]["ValorFace"]
	assert.Equal(t, ClassNumeric, diff.Class)
	assert.InDelta(t, -1e-7, diff.Delta, 1e-9)
}

func TestIntFloatPairComparedNumerically(t *testing.T) {
	cols := []table.Column{
		{Name: "contract_id", Type: table.KindString},
		{Name: "installments", Type: table.KindInt},
	}
	df1 := buildTable(t, cols, [][]table.Value{
		{table.String("K1"), table.Int(12)},
	})
	df2 := buildTable(t, []table.Column{
		{Name: "contract_id", Type: table.KindString},
		{Name: "installments", Type: table.KindFloat},
	}, [][]table.Value{
		{table.String("K1"), table.Float(12.0)},
	})

	c := defaultComparator(t, "contract_id")
	result, err := c.Compare(df1, df2, Full)
	require.NoError(t, err)

	// Runtime values agree numerically even though the declared column
	// types differ; only the schema reports the mismatch.
	assert.Empty(t, result.Differences.DifferentCells)
	assert.Contains(t, result.Differences.Schema.TypeMismatches, "installments")
}

func TestNullHandling(t *testing.T) {
	df1 := buildTable(t, contractCols(), [][]table.Value{
		{table.String("K1"), table.Null(), table.String("Acme")},
		{table.String("K2"), table.Float(50), table.String("Beta")},
		{table.String("K3"), table.Null(), table.Null()},
	})
	df2 := buildTable(t, contractCols(), [][]table.Value{
		{table.String("K1"), table.Float(100), table.String("Acme")},
		{table.String("K2"), table.Null(), table.String("Beta")},
		{table.String("K3"), table.Null(), table.Null()},
	})

	c := defaultComparator(t, "contract_id")
	result, err := c.Compare(df1, df2, Full)
	require.NoError(t, err)

	assert.Equal(t, ClassMissingInFile1, result.Differences.DifferentCells["K1"]["face_value"].Class)
	assert.Equal(t, ClassMissingInFile2, result.Differences.DifferentCells["K2"]["face_value"].Class)

	// Null on both sides is equal, not a difference.
	assert.NotContains(t, result.Differences.DifferentCells, "K3")
	assert.Equal(t, 1, result.Summary.IdenticalRows)
}

func TestTextNormalization(t *testing.T) {
	cfg := config.Default()
	cfg.KeyColumns = []string{"contract_id"}
	cfg.IgnoreCase = true
	c, err := New(cfg)
	require.NoError(t, err)

	df1 := buildTable(t, contractCols(), [][]table.Value{
		{table.String("K1"), table.Float(1), table.String("  ACME Corp  ")},
		{table.String("K2"), table.Float(1), table.String("Beta")},
	})
	df2 := buildTable(t, contractCols(), [][]table.Value{
		{table.String("K1"), table.Float(1), table.String("acme corp")},
		{table.String("K2"), table.Float(1), table.String("Gamma")},
	})

	result, err := c.Compare(df1, df2, Full)
	require.NoError(t, err)

	assert.NotContains(t, result.Differences.DifferentCells, "K1")
	require.Contains(t, result.Differences.DifferentCells, "K2")
	assert.Equal(t, ClassText, result.Differences.DifferentCells["K2"]["debtor"].Class)
}

func TestWhitespaceRespectedWhenDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.KeyColumns = []string{"contract_id"}
	cfg.IgnoreWhitespace = false
	c, err := New(cfg)
	require.NoError(t, err)

	df1 := buildTable(t, contractCols(), [][]table.Value{
		{table.String("K1"), table.Float(1), table.String(" Acme")},
	})
	df2 := buildTable(t, contractCols(), [][]table.Value{
		{table.String("K1"), table.Float(1), table.String("Acme")},
	})

	result, err := c.Compare(df1, df2, Full)
	require.NoError(t, err)
	assert.Equal(t, ClassText, result.Differences.DifferentCells["K1"]["debtor"].Class)
}

func TestTypeDifference(t *testing.T) {
	df1 := buildTable(t, contractCols(), [][]table.Value{
		{table.String("K1"), table.Float(100), table.String("Acme")},
	})
	df2 := buildTable(t, contractCols(), [][]table.Value{
		{table.String("K1"), table.String("100"), table.String("Acme")},
	})

	c := defaultComparator(t, "contract_id")
	result, err := c.Compare(df1, df2, Full)
	require.NoError(t, err)

	diff := result.Differences.DifferentCells["K1"]["face_value"]
	assert.Equal(t, ClassType, diff.Class)
	assert.Zero(t, diff.Delta)
}

func TestIgnoredColumnsExcluded(t *testing.T) {
	cfg := config.Default()
	cfg.KeyColumns = []string{"contract_id"}
	cfg.IgnoreColumns = []string{"debtor"}
	c, err := New(cfg)
	require.NoError(t, err)

	df1 := buildTable(t, contractCols(), [][]table.Value{
		{table.String("K1"), table.Float(100), table.String("Acme")},
	})
	df2 := buildTable(t, contractCols(), [][]table.Value{
		{table.String("K1"), table.Float(100), table.String("Completely Different")},
	})

	result, err := c.Compare(df1, df2, Full)
	require.NoError(t, err)

	assert.Empty(t, result.Differences.DifferentCells)
	assert.Equal(t, 1, result.Summary.IdenticalRows)
}

func TestDuplicateKeysFirstOccurrenceWins(t *testing.T) {
	df1 := buildTable(t, contractCols(), [][]table.Value{
		{table.String("K1"), table.Float(100), table.String("Acme")},
		{table.String("K1"), table.Float(999), table.String("Shadow")},
		{table.String("K2"), table.Float(200), table.String("Beta")},
	})
	df2 := buildTable(t, contractCols(), [][]table.Value{
		{table.String("K1"), table.Float(100), table.String("Acme")},
		{table.String("K2"), table.Float(200), table.String("Beta")},
	})

	c := defaultComparator(t, "contract_id")
	result, err := c.Compare(df1, df2, Full)
	require.NoError(t, err)

	// The first K1 row (matching) is compared; the second is only counted.
	assert.Equal(t, 1, result.Summary.DuplicateKeysDf1)
	assert.Equal(t, 0, result.Summary.DuplicateKeysDf2)
	assert.Equal(t, 2, result.Summary.CommonRows)
	assert.Empty(t, result.Differences.DifferentCells)
}

func TestCompositeKey(t *testing.T) {
	cols := []table.Column{
		{Name: "fund", Type: table.KindString},
		{Name: "contract_id", Type: table.KindString},
		{Name: "face_value", Type: table.KindFloat},
	}
	df1 := buildTable(t, cols, [][]table.Value{
		{table.String("F1"), table.String("C1"), table.Float(100)},
		{table.String("F2"), table.String("C1"), table.Float(200)},
	})
	df2 := buildTable(t, cols, [][]table.Value{
		{table.String("F1"), table.String("C1"), table.Float(100)},
	})

	c := defaultComparator(t, "fund", "contract_id")
	result, err := c.Compare(df1, df2, Full)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Summary.CommonRows)
	assert.Equal(t, []string{"F2:C1"}, result.Differences.MissingInDf2)
}

func TestMissingKeyColumnIsConfigError(t *testing.T) {
	df1 := buildTable(t, contractCols(), [][]table.Value{
		{table.String("K1"), table.Float(100), table.String("Acme")},
	})
	df2 := buildTable(t, []table.Column{
		{Name: "other_id", Type: table.KindString},
	}, [][]table.Value{
		{table.String("K1")},
	})

	c := defaultComparator(t, "contract_id")
	result, err := c.Compare(df1, df2, Full)
	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "contract_id")
}

func TestFullComparisonRequiresKeyColumns(t *testing.T) {
	df := buildTable(t, contractCols(), [][]table.Value{
		{table.String("K1"), table.Float(100), table.String("Acme")},
	})

	c := defaultComparator(t)
	result, err := c.Compare(df, df, Full)
	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestUnknownComparisonType(t *testing.T) {
	df := buildTable(t, contractCols(), nil)
	c := defaultComparator(t, "contract_id")
	_, err := c.Compare(df, df, Type("bogus"))
	assert.Error(t, err)
}

func TestInvalidConfigurationRejected(t *testing.T) {
	cfg := config.Default()
	cfg.FloatTolerance = -1
	_, err := New(cfg)
	assert.Error(t, err)

	cfg = config.Default()
	cfg.KeyColumns = []string{"id", "id"}
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestSchemaComparison(t *testing.T) {
	df1 := buildTable(t, []table.Column{
		{Name: "contract_id", Type: table.KindString},
		{Name: "face_value", Type: table.KindFloat},
		{Name: "internal_only", Type: table.KindString},
	}, nil)
	df2 := buildTable(t, []table.Column{
		{Name: "contract_id", Type: table.KindString},
		{Name: "face_value", Type: table.KindString},
		{Name: "report_only", Type: table.KindString},
	}, nil)

	c := defaultComparator(t, "contract_id")
	result, err := c.Compare(df1, df2, Schema)
	require.NoError(t, err)

	assert.Equal(t, []string{"report_only"}, result.Differences.Schema.MissingInDf1)
	assert.Equal(t, []string{"internal_only"}, result.Differences.Schema.MissingInDf2)

	mismatch := result.Differences.Schema.TypeMismatches["face_value"]
	assert.Equal(t, "float", mismatch.Df1)
	assert.Equal(t, "string", mismatch.Df2)
}

func TestSubsetComparison(t *testing.T) {
	df1 := buildTable(t, contractCols(), [][]table.Value{
		{table.String("K1"), table.Float(100), table.String("Acme")},
		{table.String("K1"), table.Float(100), table.String("Acme")}, // duplicate collapses
	})
	df2 := buildTable(t, contractCols(), [][]table.Value{
		{table.String("K1"), table.Float(100), table.String("Acme")},
		{table.String("K2"), table.Float(200), table.String("Beta")},
	})

	c := defaultComparator(t, "contract_id")
	result, err := c.Compare(df1, df2, Subset)
	require.NoError(t, err)

	assert.True(t, result.Summary.IsSubset)
	assert.Equal(t, 1, result.Summary.UniqueRowsDf1)
	assert.Equal(t, 2, result.Summary.UniqueRowsDf2)
	assert.Equal(t, 1, result.Summary.MatchingRows)

	// The reverse direction is not a subset.
	result, err = c.Compare(df2, df1, Subset)
	require.NoError(t, err)
	assert.False(t, result.Summary.IsSubset)
}

func TestStatisticalComparison(t *testing.T) {
	df1 := buildTable(t, contractCols(), [][]table.Value{
		{table.String("K1"), table.Float(100), table.String("Acme")},
		{table.String("K2"), table.Float(200), table.String("Beta")},
		{table.String("K3"), table.Null(), table.String("Acme")},
	})
	df2 := buildTable(t, contractCols(), [][]table.Value{
		{table.String("K1"), table.Float(110), table.String("Acme")},
		{table.String("K2"), table.Float(210), table.String("Beta")},
	})

	c := defaultComparator(t, "contract_id")
	result, err := c.Compare(df1, df2, Statistical)
	require.NoError(t, err)

	s1 := result.Statistics.Df1["face_value"]
	assert.True(t, s1.Numeric)
	assert.Equal(t, 3, s1.Count)
	assert.Equal(t, 1, s1.Nulls)
	assert.InDelta(t, 150.0, s1.Mean, 1e-9)
	assert.InDelta(t, 100.0, s1.Min, 1e-9)
	assert.InDelta(t, 200.0, s1.Max, 1e-9)

	debtor := result.Statistics.Df1["debtor"]
	assert.False(t, debtor.Numeric)
	assert.Equal(t, 2, debtor.Distinct)

	nd := result.Statistics.NumericDifferences["face_value"]
	assert.InDelta(t, 10.0, nd.MeanDifference, 1e-9)
	assert.True(t, nd.Significant)
}

func TestCoveragePercentage(t *testing.T) {
	df1 := buildTable(t, contractCols(), [][]table.Value{
		{table.String("K1"), table.Float(100), table.String("Acme")},
	})
	df2 := buildTable(t, contractCols(), [][]table.Value{
		{table.String("K1"), table.Float(100), table.String("Acme")},
		{table.String("K2"), table.Float(200), table.String("Beta")},
		{table.String("K3"), table.Float(300), table.String("Gamma")},
		{table.String("K4"), table.Float(400), table.String("Delta")},
	})

	c := defaultComparator(t, "contract_id")
	result, err := c.Compare(df1, df2, Full)
	require.NoError(t, err)

	assert.InDelta(t, 25.0, result.Summary.CoveragePercentage, 1e-9)
	assert.InDelta(t, 100.0, result.Summary.MatchPercentage, 1e-9)
}

func TestEmptyTables(t *testing.T) {
	df1 := buildTable(t, contractCols(), nil)
	df2 := buildTable(t, contractCols(), nil)

	c := defaultComparator(t, "contract_id")
	result, err := c.Compare(df1, df2, Full)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Summary.CommonRows)
	assert.Zero(t, result.Summary.MatchPercentage)
	assert.Zero(t, result.Summary.CoveragePercentage)
}
