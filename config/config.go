package config

import (
	"github.com/datastax/ormquery/log"
)

type Config interface {
	Platform() Platform
	EqualsWithNullAsNoop() bool
	Naming() NamingConvention
	DefaultBatchSize() int
	AsOfSysPeriod() string
	AsOfTableMapping() map[string]string
	DraftTableMapping() map[string]string
	Logger() log.Logger
}
