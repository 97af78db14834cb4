// endpoint package serves an HTTP console over the query engine: parsing query
// and path option text, explaining the SQL of an operation, plan statistics and metrics
package endpoint

import (
	"net/http"
	"path"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/datastax/ormquery/auth"
	"github.com/datastax/ormquery/bean"
	"github.com/datastax/ormquery/config"
	"github.com/datastax/ormquery/engine"
	"github.com/datastax/ormquery/log"
	"github.com/datastax/ormquery/plan"
	"github.com/datastax/ormquery/types"
)

const DefaultPrefix = "/console"

type ConsoleConfig struct {
	engineCfg   config.Config
	registry    *bean.Registry
	cache       *plan.Cache
	requireUser bool
	logger      log.Logger
}

func (cfg ConsoleConfig) RequireUser() bool {
	return cfg.requireUser
}

func (cfg ConsoleConfig) Logger() log.Logger {
	return cfg.logger
}

// WithCache shares a plan cache with other engines, by default the console has its own
func (cfg *ConsoleConfig) WithCache(cache *plan.Cache) *ConsoleConfig {
	cfg.cache = cache
	return cfg
}

// WithRequireUser rejects requests without the auth.UserHeader header
func (cfg *ConsoleConfig) WithRequireUser(requireUser bool) *ConsoleConfig {
	cfg.requireUser = requireUser
	return cfg
}

func (cfg ConsoleConfig) NewConsole() (*Console, error) {
	cache := cfg.cache
	if cache == nil {
		cache = plan.NewCache()
	}
	e := engine.NewEngine(cfg.engineCfg, cache)

	metrics := prometheus.NewRegistry()
	for _, c := range e.Collectors() {
		if err := metrics.Register(c); err != nil {
			return nil, err
		}
	}
	return &Console{
		engine:      e,
		registry:    cfg.registry,
		requireUser: cfg.requireUser,
		logger:      cfg.logger.Named("console"),
		metrics:     metrics,
	}, nil
}

func NewConsoleConfig(engineCfg config.Config, registry *bean.Registry) *ConsoleConfig {
	return &ConsoleConfig{
		engineCfg: engineCfg,
		registry:  registry,
		logger:    engineCfg.Logger(),
	}
}

type Console struct {
	engine      *engine.Engine
	registry    *bean.Registry
	requireUser bool
	logger      log.Logger
	metrics     *prometheus.Registry
}

func (c *Console) Engine() *engine.Engine {
	return c.engine
}

// Routes returns the console routes under prefix
func (c *Console) Routes(prefix string) []types.Route {
	routes := []types.Route{
		{Method: http.MethodGet, Pattern: path.Join(prefix, "parse"), Handler: http.HandlerFunc(c.parse)},
		{Method: http.MethodGet, Pattern: path.Join(prefix, "props"), Handler: http.HandlerFunc(c.props)},
		{Method: http.MethodGet, Pattern: path.Join(prefix, "types"), Handler: http.HandlerFunc(c.listTypes)},
		{Method: http.MethodPost, Pattern: path.Join(prefix, "explain", ":type"), Handler: http.HandlerFunc(c.explain)},
		{Method: http.MethodGet, Pattern: path.Join(prefix, "plans"), Handler: http.HandlerFunc(c.plans)},
		{Method: http.MethodDelete, Pattern: path.Join(prefix, "plans"), Handler: http.HandlerFunc(c.clearPlans)},
		{Method: http.MethodGet, Pattern: path.Join(prefix, "metrics"),
			Handler: promhttp.HandlerFor(c.metrics, promhttp.HandlerOpts{})},
	}
	for i := range routes {
		routes[i].Handler = auth.NewHandler(routes[i].Handler, c.requireUser)
	}
	return routes
}
