package endpoint

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/datastax/ormquery/auth"
	"github.com/datastax/ormquery/engine"
	"github.com/datastax/ormquery/plan"
	"github.com/datastax/ormquery/query"
	"github.com/datastax/ormquery/types"
)

type PathResponse struct {
	Path       string   `json:"path,omitempty" yaml:"path,omitempty"`
	Alias      string   `json:"alias,omitempty" yaml:"alias,omitempty"`
	Properties []string `json:"properties,omitempty" yaml:"properties,omitempty"`
	Options    string   `json:"options,omitempty" yaml:"options,omitempty"`
	ReadOnly   bool     `json:"readOnly,omitempty" yaml:"readOnly,omitempty"`
	Cache      bool     `json:"cache,omitempty" yaml:"cache,omitempty"`
	QueryBatch *int     `json:"queryBatch,omitempty" yaml:"queryBatch,omitempty"`
	LazyBatch  *int     `json:"lazyBatch,omitempty" yaml:"lazyBatch,omitempty"`
}

type ParseResponse struct {
	Query    string         `json:"query" yaml:"query"`
	Base     *PathResponse  `json:"base,omitempty" yaml:"base,omitempty"`
	Fetches  []PathResponse `json:"fetches,omitempty" yaml:"fetches,omitempty"`
	Where    string         `json:"where,omitempty" yaml:"where,omitempty"`
	OrderBy  string         `json:"orderBy,omitempty" yaml:"orderBy,omitempty"`
	MaxRows  int            `json:"maxRows,omitempty" yaml:"maxRows,omitempty"`
	FirstRow int            `json:"firstRow,omitempty" yaml:"firstRow,omitempty"`
}

type ExplainRequest struct {
	// Operation defaults to findMany
	Operation    string        `json:"operation" yaml:"operation"`
	Query        string        `json:"query" yaml:"query"`
	Params       []interface{} `json:"params" yaml:"params"`
	AsOf         interface{}   `json:"asOf" yaml:"asOf"`
	VersionStart interface{}   `json:"versionStart" yaml:"versionStart"`
	VersionEnd   interface{}   `json:"versionEnd" yaml:"versionEnd"`
	Draft        bool          `json:"draft" yaml:"draft"`
}

type ExplainResponse struct {
	SQL         string        `json:"sql" yaml:"sql"`
	Binds       []interface{} `json:"binds" yaml:"binds"`
	BindLog     string        `json:"bindLog" yaml:"bindLog"`
	Description string        `json:"description" yaml:"description"`
	PlanKey     string        `json:"planKey" yaml:"planKey"`
	Properties  []string      `json:"properties" yaml:"properties"`
}

type TypeResponse struct {
	Name  string   `json:"name" yaml:"name"`
	Table string   `json:"table" yaml:"table"`
	Manys []string `json:"manys,omitempty" yaml:"manys,omitempty"`
}

type PlanResponse struct {
	Description string             `json:"description" yaml:"description"`
	SQL         string             `json:"sql" yaml:"sql"`
	PlanKey     string             `json:"planKey" yaml:"planKey"`
	Stats       plan.StatsSnapshot `json:"stats" yaml:"stats"`
}

type PlansResponse struct {
	Cache plan.CacheStats `json:"cache" yaml:"cache"`
	Plans []PlanResponse  `json:"plans" yaml:"plans"`
}

// NewPathResponse describes the parsed options of a path
func NewPathResponse(p *query.Properties) PathResponse {
	o := p.Options
	res := PathResponse{
		Path:       p.Path,
		Alias:      p.Alias,
		Properties: o.Included(),
		Options:    o.String(),
		ReadOnly:   o.ReadOnly,
		Cache:      o.Cache,
	}
	if o.QueryBatch.IsSet() {
		b := int(o.QueryBatch)
		res.QueryBatch = &b
	}
	if o.LazyBatch.IsSet() {
		b := int(o.LazyBatch)
		res.LazyBatch = &b
	}
	return res
}

// NewParseResponse describes a parsed query in its canonical form
func NewParseResponse(d *query.Detail) ParseResponse {
	res := ParseResponse{
		Query:    d.String(),
		Where:    d.Where,
		OrderBy:  d.OrderBy,
		MaxRows:  d.MaxRows,
		FirstRow: d.FirstRow,
	}
	if d.Base != nil {
		base := NewPathResponse(d.Base)
		res.Base = &base
	}
	for _, f := range d.Fetches() {
		res.Fetches = append(res.Fetches, NewPathResponse(f))
	}
	return res
}

func (c *Console) parse(w http.ResponseWriter, r *http.Request) {
	d, err := query.Parse(r.URL.Query().Get("q"))
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, NewParseResponse(d))
}

func (c *Console) props(w http.ResponseWriter, r *http.Request) {
	p, err := query.NewProperties("", r.URL.Query().Get("p"))
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, NewPathResponse(p))
}

func (c *Console) listTypes(w http.ResponseWriter, r *http.Request) {
	res := []TypeResponse{}
	for _, d := range c.registry.Descriptors() {
		t := TypeResponse{Name: d.Name(), Table: d.Table()}
		for _, m := range d.Manys() {
			t.Manys = append(t.Manys, m.Name)
		}
		res = append(res, t)
	}
	c.writeJSON(w, http.StatusOK, res)
}

// UnknownTypeError is returned for a type name that is not registered
type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return "unknown type " + e.Name
}

// Explain compiles req against the named type without executing it
func (c *Console) Explain(ctx context.Context, typeName string, req ExplainRequest) (*ExplainResponse, error) {
	desc, ok := c.registry.Descriptor(typeName)
	if !ok {
		return nil, &UnknownTypeError{Name: typeName}
	}
	if req.Operation == "" {
		req.Operation = "findMany"
	}

	q, err := engine.ParseQuery(req.Query, req.Params...)
	if err != nil {
		return nil, err
	}
	q.AsOf, q.VersionStart, q.VersionEnd, q.Draft = req.AsOf, req.VersionStart, req.VersionEnd, req.Draft

	cq, err := c.engine.Explain(engine.NewRequest(ctx, q, desc, nil), req.Operation)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("explained query",
		"user", auth.ContextUserOrRole(ctx),
		"type", typeName,
		"operation", req.Operation)

	binds := cq.BindValues()
	if binds == nil {
		binds = []interface{}{}
	}
	return &ExplainResponse{
		SQL:         cq.GeneratedSQL(),
		Binds:       binds,
		BindLog:     cq.BindLog(),
		Description: cq.Plan().Description,
		PlanKey:     cq.Plan().Key.PartialKey(),
		Properties:  cq.Plan().Properties,
	}, nil
}

func (c *Console) explain(w http.ResponseWriter, r *http.Request) {
	var req ExplainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writeJSON(w, http.StatusBadRequest, types.ModelError{Description: "invalid request body: " + err.Error(),
			Code: http.StatusBadRequest})
		return
	}

	res, err := c.Explain(r.Context(), httprouter.ParamsFromContext(r.Context()).ByName("type"), req)
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, res)
}

func (c *Console) plans(w http.ResponseWriter, r *http.Request) {
	cache := c.engine.Cache()
	res := PlansResponse{Cache: cache.Stats(), Plans: []PlanResponse{}}
	for _, p := range cache.Plans() {
		res.Plans = append(res.Plans, PlanResponse{
			Description: p.Description,
			SQL:         p.Key.SQL,
			PlanKey:     p.Key.PartialKey(),
			Stats:       p.Stats().Snapshot(),
		})
	}
	c.writeJSON(w, http.StatusOK, res)
}

func (c *Console) clearPlans(w http.ResponseWriter, r *http.Request) {
	c.engine.Cache().Clear()
	c.logger.Info("plan cache cleared", "user", auth.ContextUserOrRole(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

// writeError reports a query that could not be parsed or compiled. Nothing is
// executed by the console so every failure is the caller's.
func (c *Console) writeError(w http.ResponseWriter, err error) {
	var syntax *query.SyntaxError
	var unknown *engine.UnknownOperationError
	var unknownType *UnknownTypeError
	code := http.StatusBadRequest
	switch {
	case errors.As(err, &unknownType):
		code = http.StatusNotFound
	case errors.As(err, &syntax), errors.As(err, &unknown):
	default:
		c.logger.Debug("query rejected", "error", err)
	}
	c.writeJSON(w, code, types.ModelError{Description: err.Error(), Code: code})
}

func (c *Console) writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		c.logger.Error("unable to encode response", "error", err)
	}
}
