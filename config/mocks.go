package config

import (
	"github.com/datastax/ormquery/log"
	"github.com/stretchr/testify/mock"
)

type ConfigMock struct {
	mock.Mock
}

func NewConfigMock() *ConfigMock {
	return &ConfigMock{}
}

// Default registers the postgres defaults. Expectations registered before Default
// take precedence.
func (o *ConfigMock) Default() *ConfigMock {
	p, _ := PlatformByName("postgres")
	o.On("Platform").Return(p)
	o.On("EqualsWithNullAsNoop").Return(false)
	o.On("Naming").Return(NewDefaultNaming())
	o.On("DefaultBatchSize").Return(DefaultBatchSize)
	o.On("AsOfSysPeriod").Return(DefaultAsOfSysPeriod)
	o.On("AsOfTableMapping").Return(map[string]string{})
	o.On("DraftTableMapping").Return(map[string]string{})
	o.On("Logger").Return(log.NewNopLogger())
	return o
}

func (o *ConfigMock) Platform() Platform {
	args := o.Called()
	return args.Get(0).(Platform)
}

func (o *ConfigMock) EqualsWithNullAsNoop() bool {
	args := o.Called()
	return args.Bool(0)
}

func (o *ConfigMock) Naming() NamingConvention {
	args := o.Called()
	return args.Get(0).(NamingConvention)
}

func (o *ConfigMock) DefaultBatchSize() int {
	args := o.Called()
	return args.Int(0)
}

func (o *ConfigMock) AsOfSysPeriod() string {
	args := o.Called()
	return args.String(0)
}

func (o *ConfigMock) AsOfTableMapping() map[string]string {
	args := o.Called()
	return args.Get(0).(map[string]string)
}

func (o *ConfigMock) DraftTableMapping() map[string]string {
	args := o.Called()
	return args.Get(0).(map[string]string)
}

func (o *ConfigMock) Logger() log.Logger {
	args := o.Called()
	return args.Get(0).(log.Logger)
}
