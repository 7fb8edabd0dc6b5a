// Package testutil provides a stub database/sql driver for postgres kv tests.
// It understands the handful of statement shapes the kv driver issues against
// the state table and keeps rows in memory.
package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
)

// StubConn records statements and holds table rows keyed by primary column.
type StubConn struct {
	mu        sync.Mutex
	Execs     []string
	Tables    map[string]map[string][]byte
	FailPing  bool
	FailExec  bool
	FailQuery bool
}

var stubSeq atomic.Int64

// NewStubDB registers a sql.DB backed by an in-memory stub connection.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{Tables: make(map[string]map[string][]byte)}
	name := fmt.Sprintf("stubpg%d", stubSeq.Add(1))
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

type stubDriver struct {
	conn *StubConn
}

func (d *stubDriver) Open(string) (driver.Conn, error) {
	return d.conn, nil
}

// Prepare implements driver.Conn.
func (c *StubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }

// Close implements driver.Conn.
func (c *StubConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StubConn) Begin() (driver.Tx, error) { return stubTx{}, nil }

// Ping implements driver.Pinger.
func (c *StubConn) Ping(_ context.Context) error {
	if c.FailPing {
		return fmt.Errorf("ping fail")
	}
	return nil
}

// Rows returns a copy of the rows stored for table.
func (c *StubConn) Rows(table string) map[string][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string][]byte, len(c.Tables[table]))
	for k, v := range c.Tables[table] {
		out[k] = bytes.Clone(v)
	}
	return out
}

// ExecContext implements driver.ExecerContext for CREATE, INSERT .. ON CONFLICT and DELETE.
func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Execs = append(c.Execs, query)
	if c.FailExec {
		return nil, fmt.Errorf("exec fail")
	}
	head := strings.ToUpper(strings.TrimSpace(query))
	switch {
	case strings.HasPrefix(head, "INSERT INTO"):
		table, err := tableAfter(query, "into ")
		if err != nil {
			return nil, err
		}
		if len(args) != 2 {
			return nil, fmt.Errorf("expected key and payload args for %s", table)
		}
		key, _ := args[0].Value.(string)
		payload, _ := args[1].Value.([]byte)
		if c.Tables[table] == nil {
			c.Tables[table] = make(map[string][]byte)
		}
		c.Tables[table][key] = bytes.Clone(payload)
	case strings.HasPrefix(head, "DELETE FROM"):
		table, err := tableAfter(query, "from ")
		if err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return nil, fmt.Errorf("missing args for delete %s", table)
		}
		key, _ := args[0].Value.(string)
		delete(c.Tables[table], key)
	}
	return driver.RowsAffected(1), nil
}

// QueryContext implements driver.QueryerContext for `SELECT payload FROM t WHERE k = $1`.
func (c *StubConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailQuery {
		return nil, fmt.Errorf("query fail")
	}
	table, err := tableAfter(query, "from ")
	if err != nil {
		return nil, err
	}
	rows := &stubRows{cols: []string{"payload"}}
	if len(args) > 0 {
		key, _ := args[0].Value.(string)
		if v, ok := c.Tables[table][key]; ok {
			rows.rows = append(rows.rows, bytes.Clone(v))
		}
	}
	return rows, nil
}

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

type stubRows struct {
	cols []string
	rows [][]byte
	idx  int
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	dest[0] = r.rows[r.idx]
	r.idx++
	return nil
}

func tableAfter(query, token string) (string, error) {
	lower := strings.ToLower(query)
	idx := strings.Index(lower, token)
	if idx == -1 {
		return "", fmt.Errorf("cannot parse statement: %s", query)
	}
	rest := strings.TrimSpace(query[idx+len(token):])
	end := strings.IndexAny(rest, " (\n\t")
	if end == -1 {
		end = len(rest)
	}
	if end == 0 {
		return "", fmt.Errorf("cannot parse statement: %s", query)
	}
	return strings.ToLower(rest[:end]), nil
}
