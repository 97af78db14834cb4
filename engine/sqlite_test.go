package engine

import (
	"context"
	"database/sql"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/datastax/ormquery/bean"
	"github.com/datastax/ormquery/db"
	"github.com/datastax/ormquery/internal/testutil"
	"github.com/datastax/ormquery/log"
	"github.com/datastax/ormquery/plan"
	"github.com/datastax/ormquery/types"
)

func names(beans []interface{}) []string {
	var out []string
	for _, b := range beans {
		out = append(out, b.(*testutil.Customer).Name)
	}
	return out
}

var _ = Describe("Engine on sqlite", func() {
	var (
		sqlDB  *sql.DB
		engine *Engine
		desc   *bean.Descriptor
		txn    db.Transaction
		logs   *observer.ObservedLogs
	)

	request := func(dsl string, params ...interface{}) *Request {
		q, err := ParseQuery(dsl, params...)
		Expect(err).NotTo(HaveOccurred())
		return NewRequest(context.Background(), q, desc, txn)
	}

	findMany := func(r *Request) []interface{} {
		coll, err := engine.FindMany(r)
		Expect(err).NotTo(HaveOccurred())
		Expect(coll).NotTo(BeNil())
		return coll.Beans()
	}

	BeforeEach(func() {
		sqlDB = testutil.SetupSQLiteFixture()
		cfg := newTestConfig("sqlite", log.NewNopLogger())
		engine = NewEngine(cfg, plan.NewCache())
		desc = customerDescriptor(cfg)

		var core zapcore.Core
		core, logs = observer.New(zapcore.DebugLevel)
		sink := log.NewLoggerSink(log.NewZapLogger(zap.New(core)))
		var err error
		txn, err = db.NewSQLTransaction(context.Background(), sqlDB, sink, nil)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = txn.End()
		_ = sqlDB.Close()
	})

	Describe("Find()", func() {
		It("Should read one bean by id", func() {
			found, err := engine.Find(request("where id = ?", 1))
			Expect(err).NotTo(HaveOccurred())
			rob := found.(*testutil.Customer)
			Expect(rob.Name).To(Equal("Rob"))
			Expect(rob.Credit.String()).To(Equal("100.50"))
			Expect(logs.FilterMessageSnippet("from customer t0 where t0.id = ?").Len()).To(Equal(1))
			Expect(logs.FilterMessageSnippet("FindBean type[customer]").Len()).To(Equal(1))
		})

		It("Should return nil when no row matches", func() {
			found, err := engine.Find(request("where id = ?", 99))
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeNil())
		})

		It("Should read the version valid at a point in time", func() {
			r := request("where id = ?", 1)
			r.Query.AsOf = 250
			found, err := engine.Find(r)
			Expect(err).NotTo(HaveOccurred())
			Expect(found.(*testutil.Customer).Age).To(Equal(29))
			Expect(found.(*testutil.Customer).Status).To(Equal("ACTIVE"))
		})
	})

	Describe("FindMany()", func() {
		It("Should read a page ordered by name", func() {
			Expect(names(findMany(request("order by name limit 2 offset 1")))).To(Equal([]string{"Jim", "Rob"}))
		})

		It("Should join a many path", func() {
			beans := findMany(request("fetch orders (status,total) order by id"))
			Expect(names(beans)).To(Equal([]string{"Rob", "Ana", "Jim"}))
			Expect(beans[0].(*testutil.Customer).Orders).To(HaveLen(2))
			Expect(beans[1].(*testutil.Customer).Orders).To(HaveLen(1))
			Expect(beans[2].(*testutil.Customer).Orders).To(BeEmpty())
			Expect(logs.FilterMessageSnippet("rows[4:3]").Len()).To(Equal(1))
		})

		It("Should load a many path by batched secondary queries", func() {
			beans := findMany(request("fetch orders (+query(2),status) order by id"))
			Expect(beans[0].(*testutil.Customer).Orders).To(HaveLen(2))
			Expect(beans[0].(*testutil.Customer).Orders[0].Status).To(Equal("NEW"))
			Expect(beans[1].(*testutil.Customer).Orders).To(HaveLen(1))
			Expect(beans[2].(*testutil.Customer).Orders).To(BeEmpty())
			Expect(logs.FilterMessageSnippet("mode[+query] type[order]").Len()).To(Equal(2))
		})

		It("Should load a lazy path on demand", func() {
			r := request("fetch orders (+lazy(10)) where id = ?", 1)
			beans := findMany(r)
			Expect(beans[0].(*testutil.Customer).Orders).To(BeNil())
			Expect(r.References()).To(HaveLen(1))

			Expect(r.References()[0].Load(context.Background())).To(Succeed())
			Expect(beans[0].(*testutil.Customer).Orders).To(HaveLen(2))
			Expect(logs.FilterMessageSnippet("lazyLoadProp[orders]").Len()).To(Equal(1))
		})

		It("Should add expressions to the where clause", func() {
			r := request("where status = ?", "NEW")
			r.Query.Add(ef.JSONGt("doc", "score.total", 5))
			Expect(names(findMany(r))).To(Equal([]string{"Rob"}))
		})

		It("Should read raw sql by column name", func() {
			q := NewQuery(nil)
			q.RawSQL = "select id, name, age from customer where age > ? order by id"
			q.Params = []interface{}{26}
			beans := findMany(NewRequest(context.Background(), q, desc, txn))
			Expect(names(beans)).To(Equal([]string{"Rob", "Ana"}))
			Expect(beans[1].(*testutil.Customer).Age).To(Equal(41))
			Expect(beans[1].(*testutil.Customer).Status).To(BeEmpty())
		})

		It("Should return nil when cancelled before execution", func() {
			r := request("")
			r.Query.Cancel()
			coll, err := engine.FindMany(r)
			Expect(err).NotTo(HaveOccurred())
			Expect(coll).To(BeNil())
		})

		It("Should return a persistence error for invalid sql", func() {
			q := NewQuery(nil)
			q.RawSQL = "select id from missing_table"
			_, err := engine.FindMany(NewRequest(context.Background(), q, desc, txn))
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("sql[select id from missing_table]"))
		})
	})

	Describe("FindIterate()", func() {
		It("Should read buffers and load their secondary queries", func() {
			it, err := engine.FindIterate(request("fetch orders (+query(2),status) order by id"))
			Expect(err).NotTo(HaveOccurred())
			defer it.Close()
			Expect(it.BufferSize()).To(Equal(2))

			counts := map[string]int{}
			for it.Next() {
				c := it.Bean().(*testutil.Customer)
				counts[c.Name] = len(c.Orders)
			}
			Expect(it.Err()).NotTo(HaveOccurred())
			Expect(counts).To(Equal(map[string]int{"Rob": 2, "Ana": 1, "Jim": 0}))
			Expect(logs.FilterMessageSnippet("mode[+query] type[order]").Len()).To(Equal(2))
		})
	})

	Describe("FindVersions()", func() {
		It("Should read the history newest first with diffs", func() {
			versions, err := engine.FindVersions(request("where id = ?", 1))
			Expect(err).NotTo(HaveOccurred())
			Expect(versions).To(HaveLen(3))
			Expect(versions[0].Diff).To(BeEmpty())
			Expect(versions[0].End).To(BeNil())
			Expect(versions[1].Diff).To(HaveKeyWithValue("age", types.ValuePair{Old: 29, New: 30}))
			Expect(versions[2].Diff).To(HaveKeyWithValue("status", types.ValuePair{Old: "NEW", New: "ACTIVE"}))
		})

		It("Should limit the history to a period", func() {
			r := request("where id = ?", 1)
			r.Query.VersionStart, r.Query.VersionEnd = 150, 350
			versions, err := engine.FindVersions(r)
			Expect(err).NotTo(HaveOccurred())
			Expect(versions).To(HaveLen(2))
			Expect(versions[0].Start).To(BeEquivalentTo(300))
		})
	})

	Describe("FindIds() and FindRowCount()", func() {
		It("Should read ids and counts", func() {
			ids, err := engine.FindIds(request("where status = ? order by id", "NEW"))
			Expect(err).NotTo(HaveOccurred())
			Expect(ids.IDs).To(Equal([]interface{}{int64(1), int64(3)}))

			count, err := engine.FindRowCount(request("where age > ?", 26))
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(2))
		})
	})

	Describe("Delete() and Update()", func() {
		It("Should delete the matching rows", func() {
			r := request("where status = ?", "NEW")
			r.Query.Add(ef.IsEmpty("orders"))
			rows, err := engine.Delete(r)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(Equal(int64(1)))

			count, err := engine.FindRowCount(request(""))
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(2))
		})

		It("Should update the matching rows", func() {
			r := request("where age < ?", 30)
			r.Query.SetValue("status", "OLD")
			rows, err := engine.Update(r)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(Equal(int64(1)))

			ids, err := engine.FindIds(request("where status = ?", "OLD"))
			Expect(err).NotTo(HaveOccurred())
			Expect(ids.IDs).To(Equal([]interface{}{int64(3)}))
		})
	})
})
