// Package integrations provides ADBC-backed warehouse connectivity for the
// internal side of a reconciliation. The engine never sees these types;
// query results are materialized into canonical tables by pkg/readers.
package integrations

import (
	"context"

	"github.com/apache/arrow-adbc/go/adbc"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// Database represents a warehouse that can serve comparison queries.
type Database interface {
	// OpenConnection creates a new connection to the database
	OpenConnection() (Connection, error)
	// Close closes the database and all its connections
	Close()
	// ConnCount returns number of open connections
	ConnCount() int
}

// Connection represents a database connection that can execute queries.
type Connection interface {
	// Exec executes a statement that doesn't return results
	Exec(ctx context.Context, sql string) (int64, error)
	// Query executes a query and returns an Arrow record stream.
	// The caller closes both the reader and the statement.
	Query(ctx context.Context, sql string) (array.RecordReader, adbc.Statement, int64, error)
	// Close closes the connection
	Close()
}

// Options define the configuration for opening a warehouse database.
type Options struct {
	// Path is the database location: a file path for DuckDB, a URI for
	// PostgreSQL ("" => in-memory DuckDB).
	Path string

	// DriverPath is the location of the ADBC driver library,
	// if empty => auto-detect per OS.
	DriverPath string

	// Context for new database/connection usage
	Context context.Context
}

// Option is a functional config approach
type Option func(*Options)

// WithPath sets the database file path or URI.
func WithPath(p string) Option {
	return func(o *Options) {
		o.Path = p
	}
}

// WithDriverPath sets the path to the ADBC driver library.
// If not provided, the driver is auto-detected based on the current OS.
func WithDriverPath(p string) Option {
	return func(o *Options) {
		o.DriverPath = p
	}
}

// WithContext sets a custom Context for DB usage.
func WithContext(ctx context.Context) Option {
	return func(o *Options) {
		o.Context = ctx
	}
}
