package engine

import (
	"context"
	"fmt"

	"github.com/datastax/ormquery/bean"
	"github.com/datastax/ormquery/query"
)

// secondaryLoad labels a secondary query in summaries
type secondaryLoad struct {
	mode         string
	lazyProperty string
	origin       string
}

// loadMany loads the many path f of parents with batched queries on the child
// table and sets the collections on the parents, empty for parents without children
func (e *Engine) loadMany(r *Request, desc *bean.Descriptor, f *fetch, parents []interface{}, load secondaryLoad) error {
	help := bean.NewCollectionHelp(f.many.Shape, f.many.Target)
	collections := make(map[string]*bean.Collection, len(parents))
	ids := make([]interface{}, 0, len(parents))
	for _, parent := range parents {
		id, err := desc.IDValue(parent)
		if err != nil {
			return err
		}
		key := idKey(id)
		if _, ok := collections[key]; ok {
			continue
		}
		collections[key] = help.CreateEmpty()
		ids = append(ids, id)
	}

	detail := query.NewDetail()
	detail.Base = &query.Properties{Options: f.options}
	batch := f.batchSize(e.cfg.DefaultBatchSize())
	for start := 0; start < len(ids); start += batch {
		end := start + batch
		if end > len(ids) {
			end = len(ids)
		}
		child := &Request{
			Query: &Query{
				Detail:           detail,
				LoadMode:         load.mode,
				LoadDescription:  desc.Name() + "." + f.many.Name,
				LazyLoadProperty: load.lazyProperty,
				Origin:           load.origin,
			},
			Descriptor: f.many.Target,
			Txn:        r.Txn,
			LogSQL:     r.LogSQL,
			LogSummary: r.LogSummary,
			AuditReads: r.AuditReads,
			ctx:        r.ctx,
			parent:     &secondaryParent{foreignKey: f.many.ForeignKey, ids: ids[start:end]},
		}
		err := e.readSecondary(child, func(l *loaded) error {
			c, ok := collections[idKey(l.parent)]
			if !ok {
				return nil
			}
			return help.Add(c, l.bean)
		})
		if err != nil {
			return err
		}
	}

	for _, parent := range parents {
		id, _ := desc.IDValue(parent)
		if err := f.many.Set(parent, collections[idKey(id)]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) readSecondary(r *Request, fn func(l *loaded) error) error {
	cq, err := e.buildQuery(r, modeSecondary)
	if err != nil {
		return err
	}
	defer e.close(cq)

	ok, err := cq.prepareBindExecute(false)
	if err != nil {
		return cq.persistenceError(err)
	}
	if !ok {
		return nil
	}
	if r.LogSQL {
		e.logSQL(cq, "")
	}
	for {
		l, err := cq.readNext()
		if err != nil {
			return cq.persistenceError(err)
		}
		if l == nil {
			break
		}
		if err := fn(l); err != nil {
			return err
		}
	}
	cq.consumed()

	if r.LogSummary {
		r.Txn.LogSummary(findSummary("FindMany", cq, true))
	}
	if r.AuditReads {
		e.audit(cq, cq.ids)
	}
	return nil
}

// lazyLoader loads the +lazy paths of the beans of one request on demand
type lazyLoader struct {
	engine  *Engine
	request *Request
	desc    *bean.Descriptor
	fetches map[string]*fetch
	origin  string
}

func newLazyLoader(e *Engine, r *Request, desc *bean.Descriptor, fetches []*fetch, origin string) *lazyLoader {
	l := &lazyLoader{engine: e, request: r, desc: desc, fetches: make(map[string]*fetch), origin: origin}
	for _, f := range fetches {
		l.fetches[f.many.Name] = f
	}
	return l
}

func (l *lazyLoader) LoadMany(ctx context.Context, parent interface{}, property string) error {
	f, ok := l.fetches[property]
	if !ok {
		return fmt.Errorf("%s is not a lazy path of %s", property, l.desc.Name())
	}
	r := *l.request
	if ctx != nil {
		r.ctx = ctx
	}
	return l.engine.loadMany(&r, l.desc, f, []interface{}{parent},
		secondaryLoad{mode: "+lazy", lazyProperty: property, origin: l.origin})
}
