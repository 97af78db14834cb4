package config

import (
	"github.com/datastax/ormquery/log"
)

const (
	DefaultBatchSize     = 100
	DefaultAsOfSysPeriod = "sys_period"
	defaultHistorySuffix = "_with_history"
)

// EngineConfig is the runtime configuration handed to the query engine
type EngineConfig struct {
	platform             Platform
	equalsWithNullAsNoop bool
	naming               NamingConvention
	defaultBatchSize     int
	asOfSysPeriod        string
	asOfTableMapping     map[string]string
	draftTableMapping    map[string]string
	logger               log.Logger
}

func NewEngineConfigWithLogger(logger log.Logger) *EngineConfig {
	p, _ := PlatformByName("postgres")
	return &EngineConfig{
		platform:          p,
		naming:            NewDefaultNaming(),
		defaultBatchSize:  DefaultBatchSize,
		asOfSysPeriod:     DefaultAsOfSysPeriod,
		asOfTableMapping:  map[string]string{},
		draftTableMapping: map[string]string{},
		logger:            logger,
	}
}

func (cfg EngineConfig) Platform() Platform {
	return cfg.platform
}

func (cfg EngineConfig) EqualsWithNullAsNoop() bool {
	return cfg.equalsWithNullAsNoop
}

func (cfg EngineConfig) Naming() NamingConvention {
	return cfg.naming
}

func (cfg EngineConfig) DefaultBatchSize() int {
	return cfg.defaultBatchSize
}

func (cfg EngineConfig) AsOfSysPeriod() string {
	return cfg.asOfSysPeriod
}

func (cfg EngineConfig) AsOfTableMapping() map[string]string {
	return cfg.asOfTableMapping
}

func (cfg EngineConfig) DraftTableMapping() map[string]string {
	return cfg.draftTableMapping
}

func (cfg EngineConfig) Logger() log.Logger {
	return cfg.logger
}

func (cfg *EngineConfig) WithPlatform(platform Platform) *EngineConfig {
	cfg.platform = platform
	return cfg
}

func (cfg *EngineConfig) WithEqualsWithNullAsNoop(noop bool) *EngineConfig {
	cfg.equalsWithNullAsNoop = noop
	return cfg
}

// WithDefaultBatchSize sets the batch size of secondary and lazy loading queries.
// A size below 1 resets it to DefaultBatchSize.
func (cfg *EngineConfig) WithDefaultBatchSize(size int) *EngineConfig {
	if size < 1 {
		size = DefaultBatchSize
	}
	cfg.defaultBatchSize = size
	return cfg
}

func (cfg *EngineConfig) WithAsOfSysPeriod(column string) *EngineConfig {
	cfg.asOfSysPeriod = column
	return cfg
}

// WithHistoryTables maps each base table to its history view, e.g. customer -> customer_with_history
func (cfg *EngineConfig) WithHistoryTables(tables ...string) *EngineConfig {
	for _, table := range tables {
		cfg.asOfTableMapping[table] = table + defaultHistorySuffix
	}
	return cfg
}

// WithAsOfTableMapping maps base tables to history views that do not follow the
// <table>_with_history name
func (cfg *EngineConfig) WithAsOfTableMapping(mapping map[string]string) *EngineConfig {
	for k, v := range mapping {
		cfg.asOfTableMapping[k] = v
	}
	return cfg
}

func (cfg *EngineConfig) WithDraftTableMapping(mapping map[string]string) *EngineConfig {
	for k, v := range mapping {
		cfg.draftTableMapping[k] = v
	}
	return cfg
}
