package readers

import (
	"context"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"fundrecon/integrations"
	"fundrecon/pkg/table"
)

// WarehouseReader loads the internal dataset by running a query against a
// warehouse connection and materializing the Arrow result stream.
//
// The engine matches rows by column name, so the warehouse side must speak
// the report side's key-column vocabulary: ColumnMapping renames source
// columns (e.g. the contract identifier) before the table leaves the loader.
type WarehouseReader struct {
	db      integrations.Database
	conn    integrations.Connection
	query   string
	mapping map[string]string
	ownsDB  bool
}

// NewWarehouseReader wraps an existing connection.
func NewWarehouseReader(conn integrations.Connection, query string, mapping map[string]string) *WarehouseReader {
	return &WarehouseReader{conn: conn, query: query, mapping: mapping}
}

// newWarehouseLoader opens a database for the factory and owns its lifetime.
func newWarehouseLoader(cfg Config) (Loader, error) {
	if cfg.Query == "" {
		return nil, errors.New("query is required for warehouse reader")
	}

	var (
		db  integrations.Database
		err error
	)
	switch cfg.Type {
	case "duckdb":
		db, err = integrations.NewDuckDB(
			integrations.WithPath(cfg.Path),
			integrations.WithDriverPath(cfg.DriverPath),
		)
	case "postgres":
		db, err = integrations.NewPostgres(
			integrations.WithPath(cfg.Path),
			integrations.WithDriverPath(cfg.DriverPath),
		)
	default:
		return nil, fmt.Errorf("unsupported warehouse type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	conn, err := db.OpenConnection()
	if err != nil {
		db.Close()
		return nil, err
	}

	return &WarehouseReader{
		db:      db,
		conn:    conn,
		query:   cfg.Query,
		mapping: cfg.ColumnMapping,
		ownsDB:  true,
	}, nil
}

// Load executes the query and materializes the result as a table.
// Query failures propagate unchanged; no partial table is returned.
func (r *WarehouseReader) Load(ctx context.Context) (*table.Table, error) {
	rr, stmt, _, err := r.conn.Query(ctx, r.query)
	if err != nil {
		return nil, fmt.Errorf("warehouse query failed: %w", err)
	}
	defer stmt.Close()
	defer rr.Release()

	var records []arrow.Record
	release := func() {
		for _, rec := range records {
			rec.Release()
		}
	}

	for rr.Next() {
		select {
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		default:
		}
		rec := rr.Record()
		rec.Retain()
		records = append(records, rec)
	}
	if err := rr.Err(); err != nil {
		release()
		return nil, fmt.Errorf("warehouse result stream failed: %w", err)
	}

	t, err := table.FromRecords(rr.Schema(), records)
	release()
	if err != nil {
		return nil, fmt.Errorf("failed to materialize query result: %w", err)
	}

	for from, to := range r.mapping {
		if err := t.RenameColumn(from, to); err != nil {
			return nil, fmt.Errorf("column mapping %s=%s: %w", from, to, err)
		}
	}
	return t, nil
}

// Close releases the connection, and the database when this loader opened it.
func (r *WarehouseReader) Close() error {
	if r.conn != nil {
		r.conn.Close()
		r.conn = nil
	}
	if r.ownsDB && r.db != nil {
		r.db.Close()
		r.db = nil
	}
	return nil
}
