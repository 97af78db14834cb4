package engine

import (
	"context"
	"sync"

	"go.uber.org/atomic"

	"github.com/datastax/ormquery/bean"
	"github.com/datastax/ormquery/db"
	"github.com/datastax/ormquery/expr"
	"github.com/datastax/ormquery/query"
	"github.com/datastax/ormquery/types"
)

// Cancelable is a query execution that can be aborted from another goroutine
type Cancelable interface {
	Cancel()
}

// Query is the definition of one query: what to select and fetch (the detail)
// plus the attributes bound to it (parameters, expressions, limits, modes).
type Query struct {
	Detail *query.Detail
	// Params bind the ? placeholders of the detail where clause, in order
	Params []interface{}
	// Where expressions are and-ed after the detail where clause
	Where []expr.Expression
	// RawSQL replaces the generated select when set. Columns map to properties by name.
	RawSQL string
	Shape  types.CollectionShape
	// LazyBatch is the batch size for lazy loading, 0 when unset
	LazyBatch int

	FutureFetch bool
	Draft       bool
	AutoTuned   bool

	// AsOf selects the version of each bean at a point in time
	AsOf interface{}
	// VersionStart and VersionEnd bound a find versions query when both are set
	VersionStart interface{}
	VersionEnd   interface{}

	// LoadMode, LoadDescription, LazyLoadProperty and Origin label the query in summaries
	LoadMode         string
	LoadDescription  string
	LazyLoadProperty string
	Origin           string

	// Set holds the assignments of an update query, in order
	Set []types.PropertyValue

	cancelled  atomic.Bool
	mu         sync.Mutex
	cancelable Cancelable
}

// NewQuery returns a query over detail. A nil detail selects everything.
func NewQuery(detail *query.Detail) *Query {
	if detail == nil {
		detail = query.NewDetail()
	}
	return &Query{Detail: detail}
}

// ParseQuery parses dsl into a new query
func ParseQuery(dsl string, params ...interface{}) (*Query, error) {
	detail, err := query.Parse(dsl)
	if err != nil {
		return nil, err
	}
	q := NewQuery(detail)
	q.Params = params
	return q, nil
}

// Add and-s e to the where clause
func (q *Query) Add(e expr.Expression) *Query {
	q.Where = append(q.Where, e)
	return q
}

// SetValue adds an assignment to an update query
func (q *Query) SetValue(property string, value interface{}) *Query {
	q.Set = append(q.Set, types.PropertyValue{Name: property, Value: value})
	return q
}

func (q *Query) IsVersionsBetween() bool {
	return q.VersionStart != nil && q.VersionEnd != nil
}

// IsPaging reports whether the query reads a page of rows, which needs a unique order
func (q *Query) IsPaging() bool {
	return q.Detail.MaxRows > 1 || q.Detail.FirstRow > 0
}

// Tune replaces the selection of the query keeping its attributes
func (q *Query) Tune(tuned *query.Detail) {
	q.Detail = q.Detail.Tune(tuned)
	q.AutoTuned = true
}

// Cancel aborts the query. Before execution starts the query returns no result,
// during execution the statement is cancelled.
func (q *Query) Cancel() {
	q.cancelled.Store(true)
	q.mu.Lock()
	c := q.cancelable
	q.mu.Unlock()
	if c != nil {
		c.Cancel()
	}
}

func (q *Query) IsCancelled() bool {
	return q.cancelled.Load()
}

func (q *Query) setCancelable(c Cancelable) {
	q.mu.Lock()
	q.cancelable = c
	q.mu.Unlock()
}

// Request is one execution of a query against a bean type in a transaction
type Request struct {
	Query      *Query
	Descriptor *bean.Descriptor
	Txn        db.Transaction

	LogSQL     bool
	LogSummary bool
	AuditReads bool

	ctx        context.Context
	references []*bean.Collection
	parent     *secondaryParent
}

// NewRequest binds q to a descriptor and transaction. SQL and summary logging
// follow the transaction. txn may be nil for a request that is only compiled.
func NewRequest(ctx context.Context, q *Query, desc *bean.Descriptor, txn db.Transaction) *Request {
	if ctx == nil {
		ctx = context.Background()
	}
	r := &Request{Query: q, Descriptor: desc, Txn: txn, ctx: ctx}
	if txn != nil {
		r.LogSQL = txn.IsLogSQL()
		r.LogSummary = txn.IsLogSummary()
	}
	return r
}

func (r *Request) Context() context.Context {
	return r.ctx
}

// References returns the unloaded collections left for +lazy fetch paths, one per
// parent bean read. Loading a reference sets the many property of its parent.
func (r *Request) References() []*bean.Collection {
	return r.references
}

// secondaryParent restricts a secondary query to the children of some parents
type secondaryParent struct {
	foreignKey string
	ids        []interface{}
}
