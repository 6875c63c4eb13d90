// Package readers provides dataset loaders that materialize CSV files and
// warehouse query results as canonical tables for the reconciliation engine.
package readers

import (
	"context"
	"fmt"
	"strings"

	"fundrecon/pkg/table"
)

// Loader produces one canonical table from a source. Loader failures are
// reported to the caller before the table reaches the engine.
type Loader interface {
	Load(ctx context.Context) (*table.Table, error)
	Close() error
}

// Config describes a dataset source.
type Config struct {
	// Type is the source type: csv, duckdb, postgres.
	Type string

	// Path is the file path (csv, duckdb) or connection URI (postgres).
	Path string

	// Delimiter for CSV sources; ',' when zero.
	Delimiter rune

	// Query for warehouse sources.
	Query string

	// DriverPath optionally pins the ADBC driver library location.
	DriverPath string

	// ColumnMapping renames warehouse columns onto the report-side
	// vocabulary (source column -> report column).
	ColumnMapping map[string]string

	// BatchSize is the read chunk size.
	BatchSize int64
}

// Factory creates loaders based on the source type.
type Factory struct{}

// DefaultFactory is the default loader factory.
var DefaultFactory = &Factory{}

// Create creates a loader for the given source.
func (f *Factory) Create(cfg Config) (Loader, error) {
	switch strings.ToLower(cfg.Type) {
	case "csv":
		return NewCSVReader(cfg)
	case "duckdb", "postgres":
		return newWarehouseLoader(cfg)
	default:
		return nil, fmt.Errorf("unsupported source type: %s", cfg.Type)
	}
}

// DetectType guesses the source type from a path extension.
func DetectType(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		return "csv"
	case strings.HasSuffix(lower, ".db") || strings.HasSuffix(lower, ".duckdb"):
		return "duckdb"
	case strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://"):
		return "postgres"
	default:
		return "csv"
	}
}
