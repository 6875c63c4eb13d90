package table

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// KindOfArrow maps an Arrow data type onto the closed cell-kind set.
// Types outside the set (timestamps, decimals, binary) are carried as strings.
func KindOfArrow(dt arrow.DataType) Kind {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return KindInt
	case arrow.FLOAT32, arrow.FLOAT64:
		return KindFloat
	case arrow.BOOL:
		return KindBool
	case arrow.NULL:
		return KindNull
	default:
		return KindString
	}
}

// ColumnsOfSchema derives table columns from an Arrow schema.
func ColumnsOfSchema(schema *arrow.Schema) []Column {
	cols := make([]Column, schema.NumFields())
	for i, field := range schema.Fields() {
		cols[i] = Column{Name: field.Name, Type: KindOfArrow(field.Type)}
	}
	return cols
}

// FromRecord materializes a single Arrow record as a table.
func FromRecord(rec arrow.Record) (*Table, error) {
	t := New(ColumnsOfSchema(rec.Schema()))
	if err := t.appendRecord(rec); err != nil {
		return nil, err
	}
	return t, nil
}

// FromRecords materializes a sequence of Arrow records sharing one schema.
func FromRecords(schema *arrow.Schema, recs []arrow.Record) (*Table, error) {
	t := New(ColumnsOfSchema(schema))
	for _, rec := range recs {
		if err := t.appendRecord(rec); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) appendRecord(rec arrow.Record) error {
	if int(rec.NumCols()) != len(t.cols) {
		return fmt.Errorf("record has %d columns, table has %d", rec.NumCols(), len(t.cols))
	}
	for i := 0; i < int(rec.NumRows()); i++ {
		row := make([]Value, rec.NumCols())
		for j := 0; j < int(rec.NumCols()); j++ {
			row[j] = arrowValue(rec.Column(j), i)
		}
		t.rows = append(t.rows, row)
	}
	return nil
}

// arrowValue extracts a single cell from an Arrow array as a tagged value.
func arrowValue(col arrow.Array, idx int) Value {
	if col.IsNull(idx) {
		return Null()
	}

	switch a := col.(type) {
	case *array.Boolean:
		return Bool(a.Value(idx))
	case *array.Int8:
		return Int(int64(a.Value(idx)))
	case *array.Int16:
		return Int(int64(a.Value(idx)))
	case *array.Int32:
		return Int(int64(a.Value(idx)))
	case *array.Int64:
		return Int(a.Value(idx))
	case *array.Uint8:
		return Int(int64(a.Value(idx)))
	case *array.Uint16:
		return Int(int64(a.Value(idx)))
	case *array.Uint32:
		return Int(int64(a.Value(idx)))
	case *array.Uint64:
		return Int(int64(a.Value(idx)))
	case *array.Float32:
		return Float(float64(a.Value(idx)))
	case *array.Float64:
		return Float(a.Value(idx))
	case *array.String:
		return String(a.Value(idx))
	case *array.LargeString:
		return String(a.Value(idx))
	default:
		// Timestamps, decimals and other types outside the closed cell set
		// are carried as their marshalled text.
		val := col.GetOneForMarshal(idx)
		if val == nil {
			return Null()
		}
		return String(fmt.Sprintf("%v", val))
	}
}
