package integrations

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/apache/arrow-adbc/go/adbc"
	"github.com/apache/arrow-adbc/go/adbc/drivermgr"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// Postgres is the primary struct managing a PostgreSQL warehouse via ADBC.
// Use NewPostgres(...) to construct.
type Postgres struct {
	mu     sync.Mutex
	db     adbc.Database
	driver adbc.Driver
	opts   Options
	conns  []*pgConn // track open connections
}

// pgConn is a simple wrapper holding an open connection
type pgConn struct {
	parent *Postgres
	adbc.Connection
}

// NewPostgres creates a new Postgres instance. Options.Path carries the
// connection URI.
func NewPostgres(options ...Option) (*Postgres, error) {
	var opts Options
	for _, opt := range options {
		opt(&opts)
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	// Auto-detect driver if empty
	dPath := opts.DriverPath
	if dPath == "" {
		switch runtime.GOOS {
		case "darwin":
			dPath = "/usr/local/lib/libadbc_driver_postgresql.dylib"
		case "linux":
			dPath = "/usr/local/lib/libadbc_driver_postgresql.so"
		case "windows":
			if home, err := os.UserHomeDir(); err == nil {
				dPath = home + "/Downloads/postgresql-windows-amd64/postgresql.dll"
			}
		}
	}

	dbOpts := map[string]string{
		"driver":          dPath,
		adbc.OptionKeyURI: opts.Path,
	}

	driver := drivermgr.Driver{}
	db, err := driver.NewDatabase(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("error creating new PostgreSQL database: %w", err)
	}

	return &Postgres{
		db:     db,
		driver: driver,
		opts:   opts,
	}, nil
}

// OpenConnection opens a new connection to Postgres.
func (p *Postgres) OpenConnection() (Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	conn, err := p.db.Open(p.opts.Context)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}
	pc := &pgConn{parent: p, Connection: conn}
	p.conns = append(p.conns, pc)
	return pc, nil
}

// Close closes the Postgres database and all open connections.
func (p *Postgres) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, c := range p.conns {
		c.Connection.Close()
	}
	p.conns = nil

	p.db.Close()
	p.db = nil
}

// ConnCount returns the current number of open connections.
func (p *Postgres) ConnCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

func (c *pgConn) Exec(ctx context.Context, sql string) (int64, error) {
	stmt, err := c.NewStatement()
	if err != nil {
		return -1, fmt.Errorf("failed to create statement: %w", err)
	}
	defer stmt.Close()

	if err := stmt.SetSqlQuery(sql); err != nil {
		return -1, fmt.Errorf("failed to set SQL query: %w", err)
	}
	return stmt.ExecuteUpdate(ctx)
}

func (c *pgConn) Query(ctx context.Context, sql string) (array.RecordReader, adbc.Statement, int64, error) {
	stmt, err := c.NewStatement()
	if err != nil {
		return nil, nil, -1, fmt.Errorf("failed to create statement: %w", err)
	}
	if err := stmt.SetSqlQuery(sql); err != nil {
		stmt.Close()
		return nil, nil, -1, fmt.Errorf("failed to set SQL query: %w", err)
	}

	rr, rowsAffected, err := stmt.ExecuteQuery(ctx)
	if err != nil {
		stmt.Close()
		return nil, nil, -1, err
	}
	return rr, stmt, rowsAffected, nil
}

// Close closes the connection, removing it from the parent Postgres's tracking.
func (c *pgConn) Close() {
	c.parent.mu.Lock()
	defer c.parent.mu.Unlock()

	for i, cc := range c.parent.conns {
		if cc == c {
			c.parent.conns[i] = c.parent.conns[len(c.parent.conns)-1]
			c.parent.conns = c.parent.conns[:len(c.parent.conns)-1]
			break
		}
	}
	c.Connection.Close()
	c.parent = nil
}
