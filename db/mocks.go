package db

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

type BinderMock struct {
	mock.Mock
}

func (o *BinderMock) Bind(ctx context.Context, sql string, values []interface{}) (Statement, error) {
	args := o.Called(sql, values)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Statement), args.Error(1)
}

type StatementMock struct {
	mock.Mock
}

func (o *StatementMock) Query(forwardOnly bool) (Cursor, error) {
	args := o.Called(forwardOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Cursor), args.Error(1)
}

func (o *StatementMock) Exec() (int64, error) {
	args := o.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (o *StatementMock) Cancel() {
	o.Called()
}

func (o *StatementMock) Close() error {
	return o.Called().Error(0)
}

// RowsCursor is an in memory cursor over fixed rows
type RowsCursor struct {
	columns []string
	rows    [][]interface{}
	pos     int
	err     error
	closed  bool
}

func NewRowsCursor(columns []string, rows ...[]interface{}) *RowsCursor {
	return &RowsCursor{columns: columns, rows: rows, pos: -1}
}

// FailAfter makes Err return err once the rows are exhausted
func (c *RowsCursor) FailAfter(err error) *RowsCursor {
	c.err = err
	return c
}

func (c *RowsCursor) Columns() []string { return c.columns }
func (c *RowsCursor) Err() error        { return c.err }
func (c *RowsCursor) IsClosed() bool    { return c.closed }

func (c *RowsCursor) Next() bool {
	if c.closed || c.pos+1 >= len(c.rows) {
		return false
	}
	c.pos++
	return true
}

func (c *RowsCursor) Values() ([]interface{}, error) {
	return c.rows[c.pos], nil
}

func (c *RowsCursor) Close() error {
	c.closed = true
	return nil
}

// TransactionMock records the lines logged through it
type TransactionMock struct {
	mu       sync.Mutex
	binder   Binder
	active   bool
	commits  int
	SQL      []string
	Summary  []string
	Audit    []string
	Users    []string
	NoLogSQL bool
}

func NewTransactionMock(binder Binder) *TransactionMock {
	return &TransactionMock{binder: binder, active: true}
}

func (t *TransactionMock) ID() string         { return "txn-test" }
func (t *TransactionMock) Binder() Binder     { return t.binder }
func (t *TransactionMock) IsLogSQL() bool     { return !t.NoLogSQL }
func (t *TransactionMock) IsLogSummary() bool { return true }

func (t *TransactionMock) LogSQL(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.SQL = append(t.SQL, msg)
}

func (t *TransactionMock) LogSummary(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Summary = append(t.Summary, msg)
}

func (t *TransactionMock) LogAudit(user string, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Users = append(t.Users, user)
	t.Audit = append(t.Audit, msg)
}

func (t *TransactionMock) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *TransactionMock) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return ErrTransactionEnded
	}
	t.commits++
	t.active = false
	return nil
}

func (t *TransactionMock) End() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = false
	return nil
}

// Commits returns the number of successful commits
func (t *TransactionMock) Commits() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.commits
}
