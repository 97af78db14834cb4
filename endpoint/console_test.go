package endpoint

import (
	"net/http"
	"net/url"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/datastax/ormquery/bean"
	"github.com/datastax/ormquery/config"
	"github.com/datastax/ormquery/internal/testutil"
	"github.com/datastax/ormquery/internal/testutil/rest"
	"github.com/datastax/ormquery/types"
)

const customerSelect = "select t0.id, t0.name, t0.status, t0.age, t0.credit, t0.doc from customer t0"

var _ = Describe("Console", func() {
	var routes []types.Route

	BeforeEach(func() {
		cfg := config.NewEngineConfigWithLogger(testutil.TestLogger())
		registry := bean.NewRegistry(cfg.Naming())
		testutil.PanicIfError(registry.Register(&testutil.Customer{}))
		console, err := NewConsoleConfig(cfg, registry).NewConsole()
		Expect(err).ToNot(HaveOccurred())
		routes = console.Routes(DefaultPrefix)
	})

	Describe("parse", func() {
		It("Should return the canonical query and its parts", func() {
			var res ParseResponse
			q := url.QueryEscape("find customer (name) fetch orders (+query(10)) where status = ? limit 10")
			code := rest.ExecuteGet(routes, "parse?q=%s", &res, q)
			Expect(code).To(Equal(http.StatusOK))
			Expect(res.Query).To(Equal("find customer (name) fetch orders (+query(10)) where status = ? limit 10"))
			Expect(res.Base.Path).To(Equal("customer"))
			Expect(res.Base.Properties).To(Equal([]string{"name"}))
			Expect(res.Fetches).To(HaveLen(1))
			Expect(res.Fetches[0].Path).To(Equal("orders"))
			Expect(*res.Fetches[0].QueryBatch).To(Equal(10))
			Expect(res.Fetches[0].LazyBatch).To(BeNil())
			Expect(res.Where).To(Equal("status = ?"))
			Expect(res.MaxRows).To(Equal(10))
		})

		It("Should return a model error for a syntax error", func() {
			var res types.ModelError
			code := rest.ExecuteGet(routes, "parse?q=%s", &res, url.QueryEscape("limit 10 page 2"))
			Expect(code).To(Equal(http.StatusBadRequest))
			Expect(res.Code).To(Equal(http.StatusBadRequest))
			Expect(res.Description).To(ContainSubstring("offset"))
		})
	})

	Describe("props", func() {
		It("Should parse markers anywhere in the options", func() {
			var res PathResponse
			code := rest.ExecuteGet(routes, "props?p=%s", &res, url.QueryEscape("+readonly,name,+lazy(20),status"))
			Expect(code).To(Equal(http.StatusOK))
			Expect(res.Properties).To(Equal([]string{"name", "status"}))
			Expect(res.ReadOnly).To(BeTrue())
			Expect(*res.LazyBatch).To(Equal(20))
			Expect(res.Options).To(Equal("name,status,+readonly,+lazy(20)"))
		})
	})

	Describe("types", func() {
		It("Should list the registered descriptors by name", func() {
			var res []TypeResponse
			code := rest.ExecuteGet(routes, "types", &res)
			Expect(code).To(Equal(http.StatusOK))
			Expect(res).To(HaveLen(3))
			Expect(res[0].Name).To(Equal("contact"))
			Expect(res[1].Name).To(Equal("customer"))
			Expect(res[1].Table).To(Equal("customer"))
			Expect(res[1].Manys).To(ConsistOf("orders", "contacts"))
		})
	})

	Describe("explain", func() {
		It("Should compile a find many query by default", func() {
			var res ExplainResponse
			body := `{"query": "where status = ? order by name", "params": ["NEW"]}`
			code := rest.ExecutePost(routes, "explain/%s", body, &res, "customer")
			Expect(code).To(Equal(http.StatusOK))
			Expect(res.SQL).To(Equal(customerSelect + " where t0.status = ? order by t0.name"))
			Expect(res.Binds).To(Equal([]interface{}{"NEW"}))
			Expect(res.Description).To(Equal("findMany customer"))
			Expect(res.PlanKey).To(HaveSuffix("_0"))
		})

		It("Should compile the named operation", func() {
			var res ExplainResponse
			body := `{"operation": "findRowCount", "query": "where status = ?", "params": ["NEW"]}`
			code := rest.ExecutePost(routes, "explain/%s", body, &res, "customer")
			Expect(code).To(Equal(http.StatusOK))
			Expect(res.SQL).To(Equal("select count(*) from customer t0 where t0.status = ?"))
			Expect(res.Description).To(Equal("findRowCount customer"))
		})

		It("Should reject an unknown operation", func() {
			var res types.ModelError
			body := `{"operation": "merge", "query": ""}`
			code := rest.ExecutePost(routes, "explain/%s", body, &res, "customer")
			Expect(code).To(Equal(http.StatusBadRequest))
			Expect(res.Description).To(HavePrefix("unknown operation merge"))
		})

		It("Should reject an unknown fetch path", func() {
			var res types.ModelError
			body := `{"query": "fetch invoices"}`
			code := rest.ExecutePost(routes, "explain/%s", body, &res, "customer")
			Expect(code).To(Equal(http.StatusBadRequest))
			Expect(res.Description).To(ContainSubstring("invoices"))
		})

		It("Should return not found for an unknown type", func() {
			var res types.ModelError
			code := rest.ExecutePost(routes, "explain/%s", `{"query": ""}`, &res, "invoice")
			Expect(code).To(Equal(http.StatusNotFound))
			Expect(res.Description).To(Equal("unknown type invoice"))
		})
	})

	Describe("plans", func() {
		It("Should share one plan between queries differing only in binds", func() {
			for _, status := range []string{"NEW", "OLD"} {
				body := `{"query": "where status = ?", "params": ["` + status + `"]}`
				Expect(rest.ExecutePost(routes, "explain/%s", body, &ExplainResponse{}, "customer")).
					To(Equal(http.StatusOK))
			}

			var res PlansResponse
			Expect(rest.ExecuteGet(routes, "plans", &res)).To(Equal(http.StatusOK))
			Expect(res.Cache.Size).To(Equal(1))
			Expect(res.Cache.Hits).To(Equal(int64(1)))
			Expect(res.Cache.Misses).To(Equal(int64(1)))
			Expect(res.Plans).To(HaveLen(1))
			Expect(res.Plans[0].SQL).To(Equal(customerSelect + " where t0.status = ?"))
			Expect(res.Plans[0].Stats.Count).To(Equal(int64(0)))

			Expect(rest.ExecuteDelete(routes, "plans")).To(Equal(http.StatusNoContent))
			Expect(rest.ExecuteGet(routes, "plans", &res)).To(Equal(http.StatusOK))
			Expect(res.Cache.Size).To(Equal(0))
			Expect(res.Plans).To(BeEmpty())
		})
	})

	Describe("metrics", func() {
		It("Should serve the engine metrics", func() {
			w := rest.ExecuteRaw(routes, http.MethodGet, "metrics")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(ContainSubstring("text/plain"))
		})
	})
})
