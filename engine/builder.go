package engine

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/datastax/ormquery/bean"
	"github.com/datastax/ormquery/config"
	"github.com/datastax/ormquery/expr"
	"github.com/datastax/ormquery/plan"
	"github.com/datastax/ormquery/query"
)

type mode int

const (
	modeBean mode = iota
	modeMany
	modeIterate
	modeVersions
	modeSecondary
	modeIds
	modeCount
	modeDelete
	modeUpdate
)

var modeNames = [...]string{"find", "findMany", "findIterate", "findVersions", "secondary",
	"findIds", "findRowCount", "delete", "update"}

func (m mode) String() string {
	return modeNames[m]
}

// Pseudo properties of columns that are not read into a bean
const (
	propStart  = "@start"
	propEnd    = "@end"
	propParent = "@parent"
)

const baseAlias = "t0"

// join is a many fetch path read from the rows of the main query
type join struct {
	many *bean.Many
	desc *bean.Descriptor
}

// fetch is a many fetch path loaded after the main query, by secondary query or lazily
type fetch struct {
	many    *bean.Many
	options query.PathOptions
}

// batchSize returns the secondary query batch size, def when the path does not set one.
// The result is always at least 1.
func (f *fetch) batchSize(def int) int {
	b := f.options.QueryBatch
	if f.options.IsLazyJoin() {
		b = f.options.LazyBatch
	}
	if b > 0 {
		return int(b)
	}
	if def < 1 {
		return config.DefaultBatchSize
	}
	return def
}

// compiled is a generated statement and what is needed to read its rows
type compiled struct {
	mode       mode
	sql        string
	binds      []interface{}
	properties []string
	logWhere   string
	rawSQL     bool
	rowNumber  bool

	desc      *bean.Descriptor
	join      *join
	secondary []*fetch
	lazy      []*fetch
}

func (c *compiled) key() plan.Key {
	return plan.NewKey(c.sql, c.rawSQL, c.rowNumber, c.logWhere)
}

type builder struct {
	cfg      config.Config
	platform config.Platform
}

func newBuilder(cfg config.Config) *builder {
	return &builder{cfg: cfg, platform: cfg.Platform()}
}

type sqlParts struct {
	sb    strings.Builder
	binds []interface{}
}

func (p *sqlParts) write(parts ...string) {
	for _, s := range parts {
		p.sb.WriteString(s)
	}
}

func (p *sqlParts) bind(values ...interface{}) {
	p.binds = append(p.binds, values...)
}

func (b *builder) build(r *Request, m mode) (*compiled, error) {
	if r.Query.RawSQL != "" {
		return b.buildRaw(r, m)
	}

	// delete and update qualify by table name so correlated sub queries resolve the outer row
	plain := b.platform.Has(config.PlainSelect)
	alias := ""
	switch {
	case plain:
	case m == modeDelete || m == modeUpdate:
		alias = b.table(r.Query, m, r.Descriptor.Table())
	default:
		alias = baseAlias
		if base := r.Query.Detail.Base; base != nil && base.Alias != "" {
			alias = base.Alias
		}
	}
	c := &compiled{mode: m, desc: r.Descriptor.WithAlias(alias)}
	if err := b.fetches(r, c, plain); err != nil {
		return nil, err
	}

	columns := b.columnMap(r, c, alias)
	p := &sqlParts{}
	switch m {
	case modeDelete:
		p.write("delete from ", b.table(r.Query, m, c.desc.Table()))
		if err := b.where(r, c, columns, p); err != nil {
			return nil, err
		}
	case modeUpdate:
		if err := b.update(r, c, columns, p); err != nil {
			return nil, err
		}
	case modeCount:
		p.write("select count(*)")
		b.from(r, c, p)
		if err := b.where(r, c, columns, p); err != nil {
			return nil, err
		}
	case modeIds:
		p.write("select ", c.desc.IdColumn())
		c.properties = []string{c.desc.ID().Name}
		b.from(r, c, p)
		if err := b.where(r, c, columns, p); err != nil {
			return nil, err
		}
		b.orderBy(r, c, columns, p)
		if err := b.limit(r, c, p); err != nil {
			return nil, err
		}
	default:
		if err := b.selectColumns(r, c, p); err != nil {
			return nil, err
		}
		b.from(r, c, p)
		if c.join != nil {
			p.write(" left join ", b.table(r.Query, m, c.join.desc.Table()), " ", c.join.desc.Alias(),
				" on ", c.join.desc.Alias(), ".", c.join.many.ForeignKey, " = ", c.desc.IdColumn())
		}
		if err := b.where(r, c, columns, p); err != nil {
			return nil, err
		}
		b.orderBy(r, c, columns, p)
		if err := b.limit(r, c, p); err != nil {
			return nil, err
		}
	}

	c.sql = p.sb.String()
	c.binds = p.binds
	return c, nil
}

func (b *builder) buildRaw(r *Request, m mode) (*compiled, error) {
	if m != modeBean && m != modeMany && m != modeIterate {
		return nil, fmt.Errorf("raw sql is not supported by %s", m)
	}
	if len(r.Query.Where) > 0 {
		return nil, errors.New("raw sql queries take their predicates in the sql")
	}
	binds := make([]interface{}, len(r.Query.Params))
	copy(binds, r.Query.Params)
	return &compiled{mode: m, sql: r.Query.RawSQL, binds: binds, rawSQL: true, desc: r.Descriptor}, nil
}

// fetches splits the fetch paths into the one many join read with the main query,
// paths loaded by secondary queries and paths left for lazy loading. Only one many
// path is joined and none when paging, iterating or on plain select platforms.
func (b *builder) fetches(r *Request, c *compiled, plain bool) error {
	if c.mode != modeBean && c.mode != modeMany && c.mode != modeIterate {
		return nil
	}
	joinAllowed := !plain && c.mode != modeIterate && !r.Query.IsPaging()

	for i, props := range r.Query.Detail.Fetches() {
		many, ok := r.Descriptor.Many(props.Path)
		if !ok {
			return fmt.Errorf("unknown fetch path %s on %s", props.Path, r.Descriptor.Name())
		}
		opts := props.Options
		switch {
		case opts.IsLazyJoin():
			c.lazy = append(c.lazy, &fetch{many: many, options: opts})
		case opts.IsQueryJoin() || !joinAllowed || c.join != nil:
			c.secondary = append(c.secondary, &fetch{many: many, options: opts})
		default:
			alias := props.Alias
			if alias == "" {
				alias = "t" + strconv.Itoa(i+1)
			}
			c.join = &join{many: many, desc: many.Target.WithAlias(alias)}
		}
	}
	return nil
}

// columnMap maps the property names usable in raw clauses to columns
func (b *builder) columnMap(r *Request, c *compiled, alias string) map[string]string {
	columns := make(map[string]string)
	for _, p := range c.desc.Properties() {
		col, _ := c.desc.Column(p.Name)
		columns[p.Name] = col
		if alias != "" {
			columns[alias+"."+p.Name] = col
		}
	}
	if c.join != nil {
		path := c.join.many.Name
		for _, p := range c.join.desc.Properties() {
			col, _ := c.join.desc.Column(p.Name)
			columns[path+"."+p.Name] = col
			columns[c.join.desc.Alias()+"."+p.Name] = col
		}
	}
	return columns
}

func (b *builder) resolver(c *compiled) expr.Resolver {
	res := resolver{Descriptor: c.desc}
	if c.join != nil {
		res.joins = map[string]*bean.Descriptor{c.join.many.Name: c.join.desc}
	}
	return res
}

// resolver resolves base properties and, with a "path." prefix, properties of the joined path
type resolver struct {
	*bean.Descriptor
	joins map[string]*bean.Descriptor
}

func (r resolver) Column(property string) (string, error) {
	if i := strings.LastIndex(property, "."); i > 0 {
		if d, ok := r.joins[property[:i]]; ok {
			return d.Column(property[i+1:])
		}
	}
	return r.Descriptor.Column(property)
}

func (b *builder) table(q *Query, m mode, table string) string {
	if m == modeVersions || q.AsOf != nil || q.IsVersionsBetween() {
		if t, ok := b.cfg.AsOfTableMapping()[table]; ok {
			return t
		}
		return table
	}
	if q.Draft {
		if t, ok := b.cfg.DraftTableMapping()[table]; ok {
			return t
		}
	}
	return table
}

func qualify(alias, column string) string {
	if alias == "" {
		return column
	}
	return alias + "." + column
}

func (b *builder) sysPeriodLower(alias string) string {
	col := qualify(alias, b.cfg.AsOfSysPeriod())
	if b.platform.Has(config.HistoryRange) {
		return "lower(" + col + ")"
	}
	return col + "_start"
}

func (b *builder) sysPeriodUpper(alias string) string {
	col := qualify(alias, b.cfg.AsOfSysPeriod())
	if b.platform.Has(config.HistoryRange) {
		return "upper(" + col + ")"
	}
	return col + "_end"
}

func selectProperties(d *bean.Descriptor, opts query.PathOptions) ([]*bean.Property, error) {
	props := []*bean.Property{d.ID()}
	if opts.Selection != query.ExplicitProperties {
		for _, p := range d.Properties() {
			if !p.ID {
				props = append(props, p)
			}
		}
		return props, nil
	}
	for _, name := range opts.Included() {
		p, ok := d.Property(name)
		if !ok {
			return nil, fmt.Errorf("unknown property %s on %s", name, d.Name())
		}
		if !p.ID {
			props = append(props, p)
		}
	}
	return props, nil
}

func (b *builder) selectColumns(r *Request, c *compiled, p *sqlParts) error {
	var opts query.PathOptions
	if base := r.Query.Detail.Base; base != nil {
		opts = base.Options
	}
	props, err := selectProperties(c.desc, opts)
	if err != nil {
		return err
	}

	var cols []string
	if c.mode == modeSecondary {
		cols = append(cols, qualify(c.desc.Alias(), r.parent.foreignKey))
		c.properties = append(c.properties, propParent)
	}
	for _, prop := range props {
		col, _ := c.desc.Column(prop.Name)
		cols = append(cols, col)
		c.properties = append(c.properties, prop.Name)
	}
	if c.join != nil {
		props, err := selectProperties(c.join.desc, fetchOptions(r.Query.Detail, c.join.many.Name))
		if err != nil {
			return err
		}
		for _, prop := range props {
			col, _ := c.join.desc.Column(prop.Name)
			cols = append(cols, col)
			c.properties = append(c.properties, c.join.many.Name+"."+prop.Name)
		}
	}
	if c.mode == modeVersions {
		cols = append(cols, b.sysPeriodLower(c.desc.Alias()), b.sysPeriodUpper(c.desc.Alias()))
		c.properties = append(c.properties, propStart, propEnd)
	}

	p.write("select ", strings.Join(cols, ", "))
	return nil
}

func fetchOptions(detail *query.Detail, path string) query.PathOptions {
	if props, ok := detail.FetchPath(path); ok {
		return props.Options
	}
	return query.PathOptions{}
}

func (b *builder) from(r *Request, c *compiled, p *sqlParts) {
	q := r.Query
	p.write(" from ", b.table(q, c.mode, c.desc.Table()))
	if b.platform.Has(config.HistoryBindAtFrom) {
		switch {
		case c.mode == modeVersions && q.IsVersionsBetween():
			p.write(" for system_time between ? and ?")
			p.bind(q.VersionStart, q.VersionEnd)
		case c.mode != modeVersions && q.AsOf != nil:
			p.write(" for system_time as of ?")
			p.bind(q.AsOf)
		}
	}
	if alias := c.desc.Alias(); alias != "" {
		p.write(" ", alias)
	}
}

// where writes the detail where clause, history predicates and expressions and-ed together
func (b *builder) where(r *Request, c *compiled, columns map[string]string, p *sqlParts) error {
	q := r.Query
	var preds []string
	var binds []interface{}

	raw := translate(q.Detail.Where, columns)
	if raw != "" {
		preds = append(preds, raw)
		binds = append(binds, q.Params...)
	}

	alias := c.desc.Alias()
	if !b.platform.Has(config.HistoryBindAtFrom) {
		if q.AsOf != nil && c.mode != modeVersions && c.mode != modeDelete && c.mode != modeUpdate {
			if b.platform.Has(config.HistoryRange) {
				preds = append(preds, qualify(alias, b.cfg.AsOfSysPeriod())+" @> ?::timestamptz")
				binds = append(binds, q.AsOf)
			} else {
				lower, upper := b.sysPeriodLower(alias), b.sysPeriodUpper(alias)
				preds = append(preds, "("+lower+" <= ? and ("+upper+" is null or "+upper+" > ?))")
				binds = append(binds, q.AsOf, q.AsOf)
			}
		}
		if c.mode == modeVersions && q.IsVersionsBetween() {
			lower := b.sysPeriodLower(alias)
			preds = append(preds, lower+" > ?", lower+" < ?")
			binds = append(binds, q.VersionStart, q.VersionEnd)
		}
	}

	res := b.resolver(c)
	for _, e := range q.Where {
		sql, values, err := expr.Render(e, res, b.platform)
		if err != nil {
			return err
		}
		preds = append(preds, sql)
		binds = append(binds, values...)
	}

	if c.mode == modeSecondary {
		ids := r.parent.ids
		marks := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
		preds = append(preds, qualify(alias, r.parent.foreignKey)+" in ("+marks+")")
		binds = append(binds, ids...)
	}

	if len(preds) == 0 {
		return nil
	}
	if raw != "" && len(preds) > 1 {
		preds[0] = "(" + raw + ")"
	}
	c.logWhere = strings.Join(preds, " and ")
	p.write(" where ", c.logWhere)
	p.bind(binds...)
	return nil
}

func (b *builder) orderBy(r *Request, c *compiled, columns map[string]string, p *sqlParts) {
	q := r.Query
	orderBy := q.Detail.OrderBy
	switch c.mode {
	case modeVersions:
		parts := []string{c.desc.ID().Name + " asc", b.sysPeriodLower(c.desc.Alias()) + " desc"}
		if orderBy != "" {
			parts = append([]string{orderBy}, parts...)
		}
		orderBy = strings.Join(parts, ", ")
	case modeSecondary:
		if !b.platform.Has(config.PlainSelect) {
			orderBy = c.desc.ID().Name
		}
	default:
		paging := q.IsPaging() && (c.mode == modeMany || c.mode == modeIterate || c.mode == modeIds)
		if !b.platform.Has(config.PlainSelect) && (c.join != nil || paging) {
			orderBy = c.desc.AppendOrderByID(orderBy)
		}
	}
	if orderBy != "" {
		p.write(" order by ", translate(orderBy, columns))
	}
}

func (b *builder) limit(r *Request, c *compiled, p *sqlParts) error {
	d := r.Query.Detail
	if d.MaxRows <= 0 && d.FirstRow <= 0 {
		return nil
	}
	if c.mode != modeMany && c.mode != modeIterate && c.mode != modeIds {
		return nil
	}
	switch {
	case b.platform.Has(config.RowNumberPaging):
		inner := p.sb.String()
		p.sb.Reset()
		if d.MaxRows > 0 {
			p.write("select * from (select rn_q.*, rownum rn_ from (", inner, ") rn_q where rownum <= ?) where rn_ > ?")
			p.bind(d.FirstRow+d.MaxRows, d.FirstRow)
		} else {
			p.write("select * from (select rn_q.*, rownum rn_ from (", inner, ") rn_q) where rn_ > ?")
			p.bind(d.FirstRow)
		}
		c.rowNumber = true
	case b.platform.Has(config.PlainSelect):
		if d.FirstRow > 0 {
			return fmt.Errorf("offset is not supported on %s", b.platform.Name)
		}
		p.write(" limit ?")
		p.bind(d.MaxRows)
	default:
		max := d.MaxRows
		if max <= 0 {
			max = math.MaxInt32
		}
		p.write(" limit ?")
		p.bind(max)
		if d.FirstRow > 0 {
			p.write(" offset ?")
			p.bind(d.FirstRow)
		}
	}
	return nil
}

func (b *builder) update(r *Request, c *compiled, columns map[string]string, p *sqlParts) error {
	if len(r.Query.Set) == 0 {
		return errors.New("update query has no set clause")
	}
	p.write("update ", b.table(r.Query, c.mode, c.desc.Table()), " set ")
	bare := c.desc.WithAlias("")
	for i, pv := range r.Query.Set {
		col, err := bare.Column(pv.Name)
		if err != nil {
			return err
		}
		if i > 0 {
			p.write(", ")
		}
		p.write(col, " = ?")
		p.bind(pv.Value)
	}
	return b.where(r, c, columns, p)
}
