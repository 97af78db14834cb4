package db

import (
	"context"
	"database/sql"
	"sync"

	"github.com/datastax/ormquery/types"
)

// Queryer is implemented by *sql.DB, *sql.Conn and *sql.Tx
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SQLBinder binds statements for database/sql drivers
type SQLBinder struct {
	q Queryer
}

func NewSQLBinder(q Queryer) *SQLBinder {
	return &SQLBinder{q: q}
}

func (b *SQLBinder) Bind(ctx context.Context, sql string, values []interface{}) (Statement, error) {
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = types.ToDbValue(v)
	}
	ctx, cancel := context.WithCancel(ctx)
	return &sqlStatement{q: b.q, ctx: ctx, cancel: cancel, sql: sql, args: args}, nil
}

type sqlStatement struct {
	q      Queryer
	ctx    context.Context
	cancel context.CancelFunc
	sql    string
	args   []interface{}

	mu     sync.Mutex
	cursor *sqlCursor
	closed bool
}

// Query runs the statement. database/sql cursors are always forward only.
func (s *sqlStatement) Query(forwardOnly bool) (Cursor, error) {
	rows, err := s.q.QueryContext(s.ctx, s.sql, s.args...)
	if err != nil {
		return nil, err
	}
	columns, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, err
	}
	c := &sqlCursor{rows: rows, columns: columns}

	s.mu.Lock()
	s.cursor = c
	s.mu.Unlock()
	return c, nil
}

func (s *sqlStatement) Exec() (int64, error) {
	result, err := s.q.ExecContext(s.ctx, s.sql, s.args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *sqlStatement) Cancel() {
	s.cancel()
}

func (s *sqlStatement) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.cursor != nil {
		err = s.cursor.Close()
	}
	s.cancel()
	return err
}

type sqlCursor struct {
	rows    *sql.Rows
	columns []string
}

func (c *sqlCursor) Columns() []string {
	return c.columns
}

func (c *sqlCursor) Next() bool {
	return c.rows.Next()
}

func (c *sqlCursor) Values() ([]interface{}, error) {
	values := make([]interface{}, len(c.columns))
	dest := make([]interface{}, len(c.columns))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := c.rows.Scan(dest...); err != nil {
		return nil, err
	}
	return values, nil
}

func (c *sqlCursor) Err() error {
	return c.rows.Err()
}

func (c *sqlCursor) Close() error {
	return c.rows.Close()
}
