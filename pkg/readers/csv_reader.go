package readers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"fundrecon/pkg/table"
)

// CSVReader loads a CSV file into a canonical table, inferring column
// types from the data. Empty strings are treated as nulls.
type CSVReader struct {
	file   *os.File
	reader *csv.Reader
	alloc  memory.Allocator
	schema *arrow.Schema
}

// NewCSVReader creates a new CSV loader.
func NewCSVReader(cfg Config) (Loader, error) {
	if cfg.Path == "" {
		return nil, errors.New("path is required for CSV reader")
	}

	file, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}

	chunkSize := cfg.BatchSize
	if chunkSize <= 0 {
		chunkSize = 10000 // Default chunk size
	}

	alloc := memory.NewGoAllocator()

	delimiter := cfg.Delimiter
	if delimiter == 0 {
		delimiter = ','
	}

	reader := csv.NewInferringReader(
		file,
		csv.WithChunk(int(chunkSize)),
		csv.WithHeader(true),
		csv.WithNullReader(true, ""), // Empty string is treated as null
		csv.WithComma(delimiter),
		csv.WithAllocator(alloc),
	)

	return &CSVReader{
		file:   file,
		reader: reader,
		alloc:  alloc,
	}, nil
}

// Load reads the whole file and materializes it as a table.
func (r *CSVReader) Load(ctx context.Context) (*table.Table, error) {
	var records []arrow.Record

	release := func() {
		for _, rec := range records {
			rec.Release()
		}
	}

	for r.reader.Next() {
		select {
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		default:
		}

		if r.schema == nil {
			r.schema = r.reader.Schema()
		}

		rec := r.reader.Record()
		rec.Retain()
		records = append(records, rec)
	}
	if err := r.reader.Err(); err != nil {
		release()
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if r.schema == nil {
		release()
		return nil, errors.New("CSV file is empty")
	}

	t, err := table.FromRecords(r.schema, records)
	release()
	if err != nil {
		return nil, fmt.Errorf("failed to materialize CSV data: %w", err)
	}
	return t, nil
}

// Close closes the reader and releases resources.
func (r *CSVReader) Close() error {
	if r.reader != nil {
		r.reader.Release()
		r.reader = nil
	}
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		return err
	}
	return nil
}
