package engine

import (
	"fmt"
	"strings"

	"github.com/datastax/ormquery/auth"
	"github.com/datastax/ormquery/types"
)

// logSQL writes the generated SQL to the transaction, with the bind values when
// the sql logger is at debug level
func (e *Engine) logSQL(cq *CQuery, suffix string) {
	sql := cq.GeneratedSQL()
	if e.sqlLogger.DebugEnabled() {
		sql = sql + "; --bind(" + cq.BindLog() + ")" + suffix
	}
	cq.request.Txn.LogSQL(sql)
}

// findSummary formats the FindBean and FindMany summary lines, e.g.
//
//	FindMany type[customer] exeMicros[310] rows[2] predicates[t0.status = ?] bind[NEW]
func findSummary(kind string, cq *CQuery, predicates bool) string {
	q := cq.request.Query
	var sb strings.Builder
	sb.Grow(200)
	sb.WriteString(kind)
	sb.WriteString(" ")
	if q.LoadMode != "" {
		sb.WriteString("mode[" + q.LoadMode + "] ")
	}
	sb.WriteString("type[" + cq.BeanName() + "] ")
	if q.AutoTuned {
		sb.WriteString("tuned[true] ")
	}
	if q.Draft {
		sb.WriteString(" draft[true] ")
	}
	if q.Origin != "" {
		sb.WriteString("origin[" + q.Origin + "] ")
	}
	if q.LazyLoadProperty != "" {
		sb.WriteString("lazyLoadProp[" + q.LazyLoadProperty + "] ")
	}
	if q.LoadDescription != "" {
		sb.WriteString("load[" + q.LoadDescription + "] ")
	}
	fmt.Fprintf(&sb, "exeMicros[%d] rows[%s", cq.ExeMicros(), cq.LoadedRowDetail())
	if predicates {
		sb.WriteString("] predicates[" + cq.LogWhereSQL())
	}
	sb.WriteString("] bind[" + cq.BindLog() + "]")
	return sb.String()
}

// countSummary formats the FindIds and FindRowCount summary lines
func countSummary(kind string, cq *CQuery) string {
	return fmt.Sprintf("%s exeMicros[%d] rows[%d] type[%s] predicates[%s] bind[%s]",
		kind, cq.ExeMicros(), cq.rowCount, cq.BeanName(), cq.LogWhereSQL(), cq.BindLog())
}

// audit logs the ids read by cq for the user of the request context
func (e *Engine) audit(cq *CQuery, ids []interface{}) {
	r := cq.request
	user := auth.ContextUserOrRole(r.ctx)
	r.Txn.LogAudit(user, fmt.Sprintf("ReadEvent type[%s] ids[%s] plan[%s]",
		cq.BeanName(), types.FormatBindLog(ids), cq.plan.Key.PartialKey()))
}
