package db

import (
	"context"
	"reflect"
	"sync"

	"github.com/gocql/gocql"

	"github.com/datastax/ormquery/types"
)

// CqlBinder binds statements for Cassandra. The engine generates plain selects
// with ? placeholders for the cassandra platform, which CQL accepts as is.
type CqlBinder struct {
	session *gocql.Session
	// Consistency applies to every statement, LocalQuorum when unset
	Consistency gocql.Consistency
}

func NewCqlBinder(session *gocql.Session) *CqlBinder {
	return &CqlBinder{session: session, Consistency: gocql.LocalQuorum}
}

func (b *CqlBinder) Bind(ctx context.Context, sql string, values []interface{}) (Statement, error) {
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = types.ToDbValue(v)
	}
	ctx, cancel := context.WithCancel(ctx)
	q := b.session.Query(sql, args...).WithContext(ctx).Consistency(b.Consistency)
	return &cqlStatement{query: q, cancel: cancel}, nil
}

type cqlStatement struct {
	query  *gocql.Query
	cancel context.CancelFunc

	mu     sync.Mutex
	cursor *cqlCursor
	closed bool
}

// Query runs the statement. Cassandra pages forward only, the hint is ignored.
func (s *cqlStatement) Query(forwardOnly bool) (Cursor, error) {
	iter := s.query.Iter()
	c := &cqlCursor{iter: iter, scanner: iter.Scanner()}
	for _, col := range iter.Columns() {
		c.columns = append(c.columns, col.Name)
	}

	s.mu.Lock()
	s.cursor = c
	s.mu.Unlock()
	return c, nil
}

// Exec runs the statement. Cassandra does not report affected rows so the count is always 0.
func (s *cqlStatement) Exec() (int64, error) {
	return 0, s.query.Exec()
}

func (s *cqlStatement) Cancel() {
	s.cancel()
}

func (s *cqlStatement) Close() error {
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
	s.query.Release()
	s.cancel()
	return err
}

type cqlCursor struct {
	iter    *gocql.Iter
	scanner gocql.Scanner
	columns []string
	closed  bool
	err     error
}

func (c *cqlCursor) Columns() []string {
	return c.columns
}

func (c *cqlCursor) Next() bool {
	return c.scanner.Next()
}

func (c *cqlCursor) Values() ([]interface{}, error) {
	row, err := c.iter.RowData()
	if err != nil {
		return nil, err
	}
	if err := c.scanner.Scan(row.Values...); err != nil {
		return nil, err
	}

	values := make([]interface{}, len(row.Values))
	for i, v := range row.Values {
		values[i] = reflect.Indirect(reflect.ValueOf(v)).Interface()
	}
	return values, nil
}

func (c *cqlCursor) Err() error {
	if c.closed {
		return c.err
	}
	return c.scanner.Err()
}

func (c *cqlCursor) Close() error {
	if c.closed {
		return c.err
	}
	c.closed = true
	c.err = c.iter.Close()
	return c.err
}
