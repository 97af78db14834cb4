// engine package compiles queries into SQL, executes them through a binder and
// reads the rows into beans, collections, id lists, counts and versions
package engine

import (
	"time"

	"github.com/spf13/cast"

	"github.com/datastax/ormquery/bean"
	"github.com/datastax/ormquery/config"
	"github.com/datastax/ormquery/log"
	"github.com/datastax/ormquery/plan"
	"github.com/datastax/ormquery/types"
)

const defaultIterateBufferSize = 100

// Engine executes query requests. It is safe for concurrent use, each request
// runs synchronously in the transaction it carries.
type Engine struct {
	cfg       config.Config
	builder   *builder
	cache     *plan.Cache
	logger    log.Logger
	sqlLogger log.Logger
	metrics   *metrics
}

func NewEngine(cfg config.Config, cache *plan.Cache) *Engine {
	return &Engine{
		cfg:       cfg,
		builder:   newBuilder(cfg),
		cache:     cache,
		logger:    cfg.Logger().Named("engine"),
		sqlLogger: cfg.Logger().Named("sql"),
		metrics:   newMetrics(),
	}
}

func (e *Engine) Cache() *plan.Cache {
	return e.cache
}

// BuildQuery compiles the find many query of r without executing it
func (e *Engine) BuildQuery(r *Request) (*CQuery, error) {
	return e.buildQuery(r, modeMany)
}

// Explain compiles the query of r as the named operation: find, findMany,
// findIterate, findVersions, findIds, findRowCount, delete or update
func (e *Engine) Explain(r *Request, operation string) (*CQuery, error) {
	for m, name := range modeNames {
		if name == operation && mode(m) != modeSecondary {
			return e.buildQuery(r, mode(m))
		}
	}
	return nil, &UnknownOperationError{Operation: operation}
}

func (e *Engine) buildQuery(r *Request, m mode) (*CQuery, error) {
	c, err := e.builder.build(r, m)
	if err != nil {
		return nil, err
	}
	p, err := e.cache.GetOrCompute(c.key(), func() (*plan.Plan, error) {
		return &plan.Plan{Description: m.String() + " " + r.Descriptor.Name(), Properties: c.properties}, nil
	})
	if err != nil {
		return nil, err
	}
	return newCQuery(r, c, p), nil
}

// Find reads at most one bean. It returns nil without error when no row matches.
func (e *Engine) Find(r *Request) (result interface{}, err error) {
	defer e.metrics.observe(modeBean, time.Now(), &err)

	cq, err := e.buildQuery(r, modeBean)
	if err != nil {
		return nil, err
	}
	defer e.close(cq)

	ok, err := cq.prepareBindExecute(false)
	if err != nil {
		return nil, cq.persistenceError(err)
	}
	if !ok {
		return nil, nil
	}
	if r.LogSQL {
		e.logSQL(cq, "")
	}

	l, err := cq.readNext()
	if err != nil {
		return nil, cq.persistenceError(err)
	}
	cq.consumed()

	if r.LogSummary {
		r.Txn.LogSummary(findSummary("FindBean", cq, false))
	}
	if l == nil {
		return nil, nil
	}
	if r.AuditReads {
		e.audit(cq, cq.ids)
	}
	if err := e.afterRead(r, cq, []interface{}{l.bean}); err != nil {
		return nil, err
	}
	return l.bean, nil
}

// FindMany reads the beans into a collection of the query shape. A paging query
// orders by the id last so pages are stable. It returns nil without error when
// the query was cancelled before execution.
func (e *Engine) FindMany(r *Request) (result *bean.Collection, err error) {
	defer e.metrics.observe(modeMany, time.Now(), &err)
	if r.Query.FutureFetch {
		defer e.endFuture(r, "findMany")
	}

	cq, err := e.buildQuery(r, modeMany)
	if err != nil {
		return nil, err
	}
	r.Query.setCancelable(cq)
	defer e.close(cq)

	ok, err := cq.prepareBindExecute(false)
	if err != nil {
		return nil, e.executionError(cq, err)
	}
	if !ok {
		e.logger.Debug("query cancelled before execution", "type", cq.BeanName())
		return nil, nil
	}
	if r.LogSQL {
		e.logSQL(cq, "")
	}

	help := bean.NewCollectionHelp(r.Query.Shape, r.Descriptor)
	coll := help.CreateEmpty()
	for {
		l, err := cq.readNext()
		if err != nil {
			return nil, e.executionError(cq, err)
		}
		if l == nil {
			break
		}
		if err := help.Add(coll, l.bean); err != nil {
			return nil, err
		}
	}
	cq.consumed()

	if r.LogSummary {
		r.Txn.LogSummary(findSummary("FindMany", cq, true))
	}
	if r.AuditReads {
		e.audit(cq, cq.ids)
	}
	if err := e.afterRead(r, cq, coll.Beans()); err != nil {
		return nil, err
	}
	return coll, nil
}

// FindIterate executes the query and returns an iterator reading the beans in
// buffers. The caller must Close the iterator. It returns nil without error when
// the query was cancelled before execution.
func (e *Engine) FindIterate(r *Request) (it *Iterator, err error) {
	defer e.metrics.observe(modeIterate, time.Now(), &err)

	cq, err := e.buildQuery(r, modeIterate)
	if err != nil {
		return nil, err
	}
	r.Query.setCancelable(cq)

	ok, err := cq.prepareBindExecute(e.cfg.Platform().Has(config.ForwardOnlyHint))
	if err != nil {
		e.close(cq)
		return nil, cq.persistenceError(err)
	}
	if !ok {
		e.close(cq)
		if r.Query.FutureFetch {
			e.endFuture(r, "findIterate")
		}
		return nil, nil
	}
	if r.LogSQL {
		e.logSQL(cq, "")
	}

	it = newIterator(e, r, cq, iterateBufferSize(cq.compiled, r.Query.LazyBatch, e.cfg.DefaultBatchSize()))
	if r.LogSummary {
		r.Txn.LogSummary(findSummary("FindMany", cq, true))
	}
	return it, nil
}

// iterateBufferSize is the smallest batch size of the secondary queries, else the
// lazy batch size of the query, else 100
func iterateBufferSize(c *compiled, lazyBatch int, defaultBatch int) int {
	size := -1
	for _, f := range c.secondary {
		if b := f.batchSize(defaultBatch); size < 0 || b < size {
			size = b
		}
	}
	if size < 1 && lazyBatch > 0 {
		size = lazyBatch
	}
	if size < 1 {
		size = defaultIterateBufferSize
	}
	return size
}

// FindVersions reads the history of the matching beans ordered by id and newest
// version first. The newest version of a bean has an empty diff, every older one
// the changes made by the version after it.
func (e *Engine) FindVersions(r *Request) (versions []types.Version, err error) {
	defer e.metrics.observe(modeVersions, time.Now(), &err)

	cq, err := e.buildQuery(r, modeVersions)
	if err != nil {
		return nil, err
	}
	defer e.close(cq)

	ok, err := cq.prepareBindExecute(false)
	if err != nil {
		return nil, cq.persistenceError(err)
	}
	if !ok {
		return nil, nil
	}
	if r.LogSQL {
		e.logSQL(cq, "")
	}

	var ids []interface{}
	for {
		l, err := cq.readNext()
		if err != nil {
			return nil, cq.persistenceError(err)
		}
		if l == nil {
			break
		}
		versions = append(versions, types.Version{Bean: l.bean, Start: l.start, End: l.end})
		ids = append(ids, l.id)
	}
	cq.consumed()

	if err := deriveVersionDiffs(r.Descriptor, versions, ids); err != nil {
		return nil, err
	}
	if r.LogSummary {
		r.Txn.LogSummary(findSummary("FindMany", cq, true))
	}
	if r.AuditReads {
		e.audit(cq, cq.ids)
	}
	return versions, nil
}

// FindIds reads the ids of the matching beans
func (e *Engine) FindIds(r *Request) (result *types.BeanIdList, err error) {
	defer e.metrics.observe(modeIds, time.Now(), &err)
	if r.Query.FutureFetch {
		defer e.endFuture(r, "findIds")
	}

	cq, err := e.buildQuery(r, modeIds)
	if err != nil {
		return nil, err
	}
	defer e.close(cq)

	list := &types.BeanIdList{IDs: []interface{}{}}
	err = e.scan(cq, func(values []interface{}) error {
		list.IDs = append(list.IDs, values[0])
		return nil
	})
	if err != nil || cq.isCancelled() {
		return nil, err
	}
	if r.LogSQL {
		e.logSQL(cq, "")
	}
	if r.LogSummary {
		r.Txn.LogSummary(countSummary("FindIds", cq))
	}
	return list, nil
}

// FindRowCount counts the matching beans
func (e *Engine) FindRowCount(r *Request) (count int, err error) {
	defer e.metrics.observe(modeCount, time.Now(), &err)
	if r.Query.FutureFetch {
		defer e.endFuture(r, "findRowCount")
	}

	cq, err := e.buildQuery(r, modeCount)
	if err != nil {
		return 0, err
	}
	defer e.close(cq)

	err = e.scan(cq, func(values []interface{}) error {
		n, err := cast.ToIntE(values[0])
		if err != nil {
			return err
		}
		count = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	if r.LogSQL {
		e.logSQL(cq, "")
	}
	if r.LogSummary {
		r.Txn.LogSummary(countSummary("FindRowCount", cq))
	}
	return count, nil
}

// scan executes cq and passes every row to fn
func (e *Engine) scan(cq *CQuery, fn func(values []interface{}) error) error {
	ok, err := cq.prepareBindExecute(false)
	if err != nil {
		return cq.persistenceError(err)
	}
	if !ok {
		return nil
	}
	for {
		values, ok, err := cq.row()
		if err != nil {
			return cq.persistenceError(err)
		}
		if !ok {
			break
		}
		if err := fn(values); err != nil {
			return cq.persistenceError(err)
		}
	}
	cq.consumed()
	return nil
}

// Delete executes a bulk delete and returns the deleted row count
func (e *Engine) Delete(r *Request) (int64, error) {
	return e.executeUpdate(r, modeDelete)
}

// Update executes a bulk update and returns the updated row count
func (e *Engine) Update(r *Request) (int64, error) {
	return e.executeUpdate(r, modeUpdate)
}

func (e *Engine) executeUpdate(r *Request, m mode) (rows int64, err error) {
	defer e.metrics.observe(m, time.Now(), &err)

	cq, err := e.buildQuery(r, m)
	if err != nil {
		return 0, err
	}
	defer e.close(cq)

	rows, err = cq.execute()
	if err != nil {
		return 0, cq.persistenceError(err)
	}
	if r.LogSQL {
		e.logSQL(cq, " rows:"+cast.ToString(rows))
	}
	return rows, nil
}

// executionError wraps err unless the query was cancelled, which is not an error
func (e *Engine) executionError(cq *CQuery, err error) error {
	if cq.isCancelled() {
		e.logger.Debug("query cancelled during execution", "type", cq.BeanName(), "error", err)
		return nil
	}
	return cq.persistenceError(err)
}

func (e *Engine) close(cq *CQuery) {
	if err := cq.Close(); err != nil {
		e.logger.Warn("error closing statement", "sql", cq.GeneratedSQL(), "error", err)
	}
}

// endFuture ends the transaction a future fetch runs in
func (e *Engine) endFuture(r *Request, operation string) {
	e.logger.Debug("future fetch completed", "operation", operation, "txn", r.Txn.ID())
	if err := r.Txn.End(); err != nil {
		e.logger.Error("error ending future fetch transaction", "txn", r.Txn.ID(), "error", err)
	}
}

// afterRead runs the secondary queries and leaves lazy references for the beans read
func (e *Engine) afterRead(r *Request, cq *CQuery, beans []interface{}) error {
	if len(beans) == 0 {
		return nil
	}
	c := cq.compiled
	for _, f := range c.secondary {
		if err := e.loadMany(r, c.desc, f, beans, secondaryLoad{mode: "+query", origin: cq.plan.Key.PartialKey()}); err != nil {
			return err
		}
	}
	if len(c.lazy) > 0 {
		loader := newLazyLoader(e, r, c.desc, c.lazy, cq.plan.Key.PartialKey())
		for _, f := range c.lazy {
			help := bean.NewCollectionHelp(f.many.Shape, f.many.Target)
			for _, b := range beans {
				r.references = append(r.references, help.CreateReference(b, f.many.Name, loader))
			}
		}
	}
	return nil
}
