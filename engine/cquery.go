package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/datastax/ormquery/db"
	"github.com/datastax/ormquery/plan"
	"github.com/datastax/ormquery/types"
)

// State is the execution state of a CQuery. States only move forward.
type State int

const (
	Built State = iota
	Bound
	Executing
	Open
	Consumed
	Closed
	Cancelled
)

var stateNames = [...]string{"built", "bound", "executing", "open", "consumed", "closed", "cancelled"}

func (s State) String() string {
	return stateNames[s]
}

// CQuery is one compiled query execution: the generated statement, its plan and
// the statement and cursor it holds while executing
type CQuery struct {
	request  *Request
	compiled *compiled
	plan     *plan.Plan
	bindLog  string

	mu        sync.Mutex
	state     State
	cancelled bool
	stmt      db.Statement
	cursor    db.Cursor

	exeMicros int64
	rowCount  int
	beanCount int
	ids       []interface{}
	layout    *layout
	pending   []interface{}
}

func newCQuery(r *Request, c *compiled, p *plan.Plan) *CQuery {
	return &CQuery{request: r, compiled: c, plan: p, bindLog: types.FormatBindLog(c.binds)}
}

func (c *CQuery) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// setState moves to s unless the query is already past it. Caller holds mu.
func (c *CQuery) setState(s State) {
	if c.state == Cancelled || c.state == Closed {
		return
	}
	if s > c.state {
		c.state = s
	}
}

func (c *CQuery) GeneratedSQL() string      { return c.compiled.sql }
func (c *CQuery) BindValues() []interface{} { return c.compiled.binds }
func (c *CQuery) BindLog() string           { return c.bindLog }
func (c *CQuery) LogWhereSQL() string       { return c.compiled.logWhere }
func (c *CQuery) Plan() *plan.Plan          { return c.plan }
func (c *CQuery) BeanName() string          { return c.request.Descriptor.Name() }
func (c *CQuery) ExeMicros() int64          { return c.exeMicros }

// LoadedRowDetail is the row count, followed by the bean count when rows were
// joined into fewer beans
func (c *CQuery) LoadedRowDetail() string {
	if c.compiled.join == nil || c.rowCount == c.beanCount {
		return fmt.Sprint(c.rowCount)
	}
	return fmt.Sprintf("%d:%d", c.rowCount, c.beanCount)
}

// Cancel aborts the query. A query not yet bound will not execute, an executing
// statement is cancelled through the driver.
func (c *CQuery) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Closed {
		return
	}
	c.cancelled = true
	c.state = Cancelled
	if c.stmt != nil {
		c.stmt.Cancel()
	}
}

// bind binds the statement. It returns false when the query was cancelled before.
func (c *CQuery) bind() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelled || c.request.Query.IsCancelled() {
		c.cancelled = true
		c.state = Cancelled
		return false, nil
	}
	stmt, err := c.request.Txn.Binder().Bind(c.request.ctx, c.compiled.sql, c.compiled.binds)
	if err != nil {
		return false, err
	}
	c.stmt = stmt
	c.setState(Bound)
	return true, nil
}

// prepareBindExecute binds and executes the query for rows. It returns false
// without executing when the query was cancelled before binding.
func (c *CQuery) prepareBindExecute(forwardOnly bool) (bool, error) {
	ok, err := c.bind()
	if !ok || err != nil {
		return ok, err
	}

	c.mu.Lock()
	c.setState(Executing)
	stmt := c.stmt
	c.mu.Unlock()

	start := time.Now()
	cursor, err := stmt.Query(forwardOnly)
	c.exeMicros = time.Since(start).Microseconds()
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	c.cursor = cursor
	c.setState(Open)
	c.mu.Unlock()
	return true, nil
}

// execute binds and executes a DML statement returning the affected row count
func (c *CQuery) execute() (int64, error) {
	ok, err := c.bind()
	if !ok || err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.setState(Executing)
	stmt := c.stmt
	c.mu.Unlock()

	start := time.Now()
	rows, err := stmt.Exec()
	c.exeMicros = time.Since(start).Microseconds()
	if err != nil {
		return 0, err
	}
	c.rowCount = int(rows)
	c.consumed()
	return rows, nil
}

func (c *CQuery) consumed() {
	c.mu.Lock()
	c.setState(Consumed)
	c.mu.Unlock()
	if c.plan != nil {
		c.plan.Stats().Add(time.Duration(c.exeMicros)*time.Microsecond, c.rowCount)
	}
}

func (c *CQuery) isCancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}

// Close releases the cursor and statement. It is safe to call more than once.
func (c *CQuery) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Closed {
		return nil
	}
	var err error
	if c.cursor != nil {
		err = c.cursor.Close()
		c.cursor = nil
	}
	if c.stmt != nil {
		if serr := c.stmt.Close(); err == nil {
			err = serr
		}
		c.stmt = nil
	}
	if c.state != Cancelled {
		c.state = Closed
	}
	return err
}

func (c *CQuery) persistenceError(err error) error {
	return db.NewPersistenceError(err, c.request.Txn, c.bindLog, c.compiled.sql)
}
