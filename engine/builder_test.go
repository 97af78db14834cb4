package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datastax/ormquery/db"
	"github.com/datastax/ormquery/expr"
	"github.com/datastax/ormquery/log"
	"github.com/datastax/ormquery/plan"
	"github.com/datastax/ormquery/types"
)

var ef = expr.NewFactory(false, false)

func TestBuild(t *testing.T) {
	items := []struct {
		platform string
		dsl      string
		params   []interface{}
		where    []expr.Expression
		setup    func(q *Query)
		mode     mode
		sql      string
		binds    []interface{}
	}{
		{"postgres", "where status = ? order by name", []interface{}{"NEW"}, nil, nil, modeMany,
			"select " + customerColumns + " from customer t0 where t0.status = ? order by t0.name",
			[]interface{}{"NEW"}},
		{"postgres", "where status = ? order by name limit 20 offset 10", []interface{}{"NEW"}, nil, nil, modeMany,
			"select " + customerColumns + " from customer t0 where t0.status = ? order by t0.name, t0.id limit ? offset ?",
			[]interface{}{"NEW", 20, 10}},
		{"postgres", "order by id desc limit 5", nil, nil, nil, modeMany,
			"select " + customerColumns + " from customer t0 order by t0.id desc limit ?",
			[]interface{}{5}},
		{"sqlite", "limit 0 offset 5", nil, nil, nil, modeMany,
			"select " + customerColumns + " from customer t0 order by t0.id limit ? offset ?",
			[]interface{}{2147483647, 5}},
		{"postgres", "find customer (name) fetch orders (status,total) where id = ?", []interface{}{1}, nil, nil, modeBean,
			"select t0.id, t0.name, t1.id, t1.status, t1.total from customer t0" +
				" left join orders t1 on t1.customer_id = t0.id where t0.id = ? order by t0.id",
			[]interface{}{1}},
		{"postgres", "fetch orders limit 5", nil, nil, nil, modeMany,
			"select " + customerColumns + " from customer t0 order by t0.id limit ?",
			[]interface{}{5}},
		{"postgres", "fetch orders (+query(10))", nil, nil, nil, modeMany,
			"select " + customerColumns + " from customer t0", nil},
		{"postgres", "fetch orders (+lazy(10))", nil, nil, nil, modeBean,
			"select " + customerColumns + " from customer t0", nil},
		{"postgres", "where age > ?", []interface{}{20}, []expr.Expression{ef.Eq("status", "NEW")}, nil, modeMany,
			"select " + customerColumns + " from customer t0 where (t0.age > ?) and t0.status = ?",
			[]interface{}{20, "NEW"}},
		{"postgres", "fetch orders (status)", nil, []expr.Expression{ef.Eq("orders.status", "NEW")}, nil, modeMany,
			"select " + customerColumns + ", t1.id, t1.status from customer t0" +
				" left join orders t1 on t1.customer_id = t0.id where t1.status = ? order by t0.id",
			[]interface{}{"NEW"}},
		{"postgres", "fetch orders as o (status) where o.status = ? and name like 'orders.%'", []interface{}{"NEW"}, nil, nil, modeMany,
			"select " + customerColumns + ", o.id, o.status from customer t0" +
				" left join orders o on o.customer_id = t0.id where o.status = ? and t0.name like 'orders.%' order by t0.id",
			[]interface{}{"NEW"}},
		{"postgres", "find customer as c (name) where c.name = ? and lower(status) = ?", []interface{}{"Rob", "new"}, nil, nil, modeMany,
			"select c.id, c.name from customer c where c.name = ? and lower(c.status) = ?",
			[]interface{}{"Rob", "new"}},
		{"postgres", "where status = ? order by name limit 10", []interface{}{"NEW"}, nil, nil, modeIds,
			"select t0.id from customer t0 where t0.status = ? order by t0.name, t0.id limit ?",
			[]interface{}{"NEW", 10}},
		{"postgres", "fetch orders where status = ? order by name", []interface{}{"NEW"}, nil, nil, modeCount,
			"select count(*) from customer t0 where t0.status = ?",
			[]interface{}{"NEW"}},
		{"postgres", "where status = ?", []interface{}{"NEW"}, []expr.Expression{ef.IsEmpty("orders")}, nil, modeDelete,
			"delete from customer where (customer.status = ?) and not exists" +
				" (select 1 from orders x where x.customer_id = customer.id)",
			[]interface{}{"NEW"}},
		{"postgres", "where age < ?", []interface{}{30}, nil, func(q *Query) { q.SetValue("status", "OLD").SetValue("age", 31) }, modeUpdate,
			"update customer set status = ?, age = ? where customer.age < ?",
			[]interface{}{"OLD", 31, 30}},
		{"postgres", "where id = ?", []interface{}{1}, nil, nil, modeVersions,
			"select " + customerColumns + ", lower(t0.sys_period), upper(t0.sys_period) from customer_with_history t0" +
				" where t0.id = ? order by t0.id asc, lower(t0.sys_period) desc",
			[]interface{}{1}},
		{"sqlite", "where id = ?", []interface{}{1}, nil, func(q *Query) { q.VersionStart, q.VersionEnd = 100, 400 }, modeVersions,
			"select " + customerColumns + ", t0.sys_period_start, t0.sys_period_end from customer_with_history t0" +
				" where (t0.id = ?) and t0.sys_period_start > ? and t0.sys_period_start < ?" +
				" order by t0.id asc, t0.sys_period_start desc",
			[]interface{}{1, 100, 400}},
		{"sqlite", "", nil, nil, func(q *Query) { q.AsOf = 250 }, modeMany,
			"select " + customerColumns + " from customer_with_history t0" +
				" where (t0.sys_period_start <= ? and (t0.sys_period_end is null or t0.sys_period_end > ?))",
			[]interface{}{250, 250}},
		{"postgres", "", nil, nil, func(q *Query) { q.AsOf = "2020-01-01" }, modeBean,
			"select " + customerColumns + " from customer_with_history t0 where t0.sys_period @> ?::timestamptz",
			[]interface{}{"2020-01-01"}},
		{"h2", "where status = ?", []interface{}{"NEW"}, nil, func(q *Query) { q.AsOf = 250 }, modeMany,
			"select " + customerColumns + " from customer_with_history for system_time as of ? t0 where t0.status = ?",
			[]interface{}{250, "NEW"}},
		{"h2", "", nil, nil, func(q *Query) { q.VersionStart, q.VersionEnd = 1, 2 }, modeVersions,
			"select " + customerColumns + ", t0.sys_period_start, t0.sys_period_end" +
				" from customer_with_history for system_time between ? and ? t0 order by t0.id asc, t0.sys_period_start desc",
			[]interface{}{1, 2}},
		{"oracle", "order by name limit 10 offset 20", nil, nil, nil, modeMany,
			"select * from (select rn_q.*, rownum rn_ from (select " + customerColumns +
				" from customer t0 order by t0.name, t0.id) rn_q where rownum <= ?) where rn_ > ?",
			[]interface{}{30, 20}},
		{"cassandra", "fetch orders where status = ? limit 10", []interface{}{"NEW"}, nil, nil, modeMany,
			"select id, name, status, age, credit, doc from customer where status = ? limit ?",
			[]interface{}{"NEW", 10}},
		{"sqlite", "", nil, []expr.Expression{ef.JSONGt("doc", "score.total", 5)}, nil, modeMany,
			"select " + customerColumns + " from customer t0 where json_extract(t0.doc, '$.score.total') > ?",
			[]interface{}{5}},
	}

	dmp := diffmatchpatch.New()
	for _, item := range items {
		cfg := newTestConfig(item.platform, log.NewNopLogger())
		q, err := ParseQuery(item.dsl, item.params...)
		require.NoError(t, err, item.dsl)
		q.Where = item.where
		if item.setup != nil {
			item.setup(q)
		}
		r := NewRequest(context.Background(), q, customerDescriptor(cfg), db.NewTransactionMock(nil))

		c, err := newBuilder(cfg).build(r, item.mode)
		require.NoError(t, err, item.dsl)
		if c.sql != item.sql {
			diffs := dmp.DiffMain(item.sql, c.sql, false)
			fmt.Println(dmp.DiffPrettyText(diffs))
		}
		assert.Equal(t, item.sql, c.sql, "%s %s", item.platform, item.dsl)
		assert.Equal(t, item.binds, c.binds, item.sql)
	}
}

func TestBuildErrors(t *testing.T) {
	items := []struct {
		platform string
		dsl      string
		setup    func(q *Query)
		mode     mode
		err      string
	}{
		{"postgres", "fetch lines", nil, modeMany, "unknown fetch path lines on customer"},
		{"postgres", "find customer (nme)", nil, modeMany, "unknown property nme on customer"},
		{"postgres", "fetch orders (amount)", nil, modeBean, "unknown property amount on order"},
		{"postgres", "", nil, modeUpdate, "update query has no set clause"},
		{"postgres", "", func(q *Query) { q.SetValue("nme", 1) }, modeUpdate, "unknown property nme on customer"},
		{"cassandra", "limit 10 offset 10", nil, modeMany, "offset is not supported on cassandra"},
		{"postgres", "", func(q *Query) { q.RawSQL = "select id from customer"; q.Add(ef.Eq("name", "x")) }, modeMany,
			"raw sql queries take their predicates in the sql"},
		{"postgres", "", func(q *Query) { q.RawSQL = "select count(*) from customer" }, modeCount,
			"raw sql is not supported by findRowCount"},
		{"postgres", "", func(q *Query) { q.Add(ef.Eq("missing", 1)) }, modeMany, "unknown property missing on customer"},
	}

	for _, item := range items {
		cfg := newTestConfig(item.platform, log.NewNopLogger())
		q, err := ParseQuery(item.dsl)
		require.NoError(t, err)
		if item.setup != nil {
			item.setup(q)
		}
		r := NewRequest(context.Background(), q, customerDescriptor(cfg), db.NewTransactionMock(nil))
		_, err = newBuilder(cfg).build(r, item.mode)
		assert.EqualError(t, err, item.err, item.dsl)
	}
}

func TestBuildGolden(t *testing.T) {
	cfg := newTestConfig("postgres", log.NewNopLogger())
	q, err := ParseQuery("find customer (name,status) fetch orders (status,total) where status = ? order by name", "NEW")
	require.NoError(t, err)
	q.Add(ef.Gt("age", 18)).Add(ef.Or(ef.IsNull("credit"), ef.Ge("credit", 10)))
	r := NewRequest(context.Background(), q, customerDescriptor(cfg), db.NewTransactionMock(nil))

	c, err := newBuilder(cfg).build(r, modeMany)
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "findmany_join_postgres", []byte(fmt.Sprintf("%s\nbind: %s\n", c.sql, types.FormatBindLog(c.binds))))
}

func TestPlanKeyIgnoresBindValues(t *testing.T) {
	cfg := newTestConfig("postgres", log.NewNopLogger())
	e := NewEngine(cfg, plan.NewCache())
	desc := customerDescriptor(cfg)
	txn := db.NewTransactionMock(nil)

	build := func(dsl string, age int) *CQuery {
		q, err := ParseQuery(dsl)
		require.NoError(t, err)
		q.Add(ef.Eq("age", age))
		cq, err := e.BuildQuery(NewRequest(context.Background(), q, desc, txn))
		require.NoError(t, err)
		return cq
	}

	a := build("where status = 'NEW'", 5)
	b := build("where status = 'NEW'", 42)
	assert.Equal(t, a.Plan().Key, b.Plan().Key)
	assert.Same(t, a.Plan(), b.Plan())
	assert.Equal(t, []interface{}{42}, b.BindValues())

	c := build("fetch orders (status) where status = 'NEW'", 5)
	assert.NotEqual(t, a.Plan().Key, c.Plan().Key)
	d := build("where status = 'NEW' or status = 'OLD'", 5)
	assert.NotEqual(t, a.Plan().Key, d.Plan().Key)

	assert.Equal(t, 3, e.Cache().Len())
	assert.Equal(t, int64(1), e.Cache().Stats().Hits)
	assert.Equal(t, "findMany customer", a.Plan().Description)
	assert.Equal(t, []string{"id", "name", "status", "age", "credit", "doc", "orders.id", "orders.status"},
		c.Plan().Properties)
}

func TestTranslate(t *testing.T) {
	columns := map[string]string{"name": "t0.name", "status": "t0.status", "orders.status": "t1.status"}
	items := []struct {
		raw      string
		expected string
	}{
		{"", ""},
		{"name = ?", "t0.name = ?"},
		{"name = 'name' and status <> 'it''s status'", "t0.name = 'name' and t0.status <> 'it''s status'"},
		{"lower(name) = ? or orders.status in (?,?)", "lower(t0.name) = ? or t1.status in (?,?)"},
		{"name desc, status", "t0.name desc, t0.status"},
		{"names = ? and x.name = ?", "names = ? and x.name = ?"},
		{"name = 'unterminated", "t0.name = 'unterminated"},
	}
	for _, item := range items {
		assert.Equal(t, item.expected, translate(item.raw, columns), item.raw)
	}
}
