package engine

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/datastax/ormquery/bean"
	"github.com/datastax/ormquery/config"
	"github.com/datastax/ormquery/db"
	"github.com/datastax/ormquery/internal/testutil"
	"github.com/datastax/ormquery/log"
	"github.com/datastax/ormquery/plan"
)

const customerColumns = "t0.id, t0.name, t0.status, t0.age, t0.credit, t0.doc"

var customerCursorColumns = []string{"id", "name", "status", "age", "credit", "doc"}

func newTestConfig(platform string, logger log.Logger) *config.EngineConfig {
	p, err := config.PlatformByName(platform)
	testutil.PanicIfError(err)
	return config.NewEngineConfigWithLogger(logger).WithPlatform(p).WithHistoryTables("customer")
}

func customerDescriptor(cfg config.Config) *bean.Descriptor {
	registry := bean.NewRegistry(cfg.Naming())
	testutil.PanicIfError(registry.Register(&testutil.Customer{}))
	d, _ := registry.DescriptorOf(&testutil.Customer{})
	return d
}

func debugLogger() log.Logger {
	core, _ := observer.New(zapcore.DebugLevel)
	return log.NewZapLogger(zap.New(core))
}

var exeMicros = regexp.MustCompile(`exeMicros\[\d+\]`)

// normalized replaces the execution time of summaries
func normalized(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = exeMicros.ReplaceAllString(l, "exeMicros[0]")
	}
	return out
}

type fixture struct {
	t      *testing.T
	cfg    *config.EngineConfig
	engine *Engine
	desc   *bean.Descriptor
	binder *db.BinderMock
	stmt   *db.StatementMock
	txn    *db.TransactionMock
}

func newFixture(t *testing.T, platform string, logger log.Logger) *fixture {
	cfg := newTestConfig(platform, logger)
	binder := &db.BinderMock{}
	return &fixture{
		t:      t,
		cfg:    cfg,
		engine: NewEngine(cfg, plan.NewCache()),
		desc:   customerDescriptor(cfg),
		binder: binder,
		stmt:   &db.StatementMock{},
		txn:    db.NewTransactionMock(binder),
	}
}

func (f *fixture) request(dsl string, params ...interface{}) *Request {
	q, err := ParseQuery(dsl, params...)
	require.NoError(f.t, err)
	return NewRequest(context.Background(), q, f.desc, f.txn)
}

// expect makes the binder return f.stmt for sql, whose query returns cursor.
// A nil binds matches any bind values.
func (f *fixture) expect(sql string, binds []interface{}, cursor db.Cursor) {
	var values interface{} = binds
	if binds == nil {
		values = mock.Anything
	}
	f.binder.On("Bind", sql, values).Return(f.stmt, nil)
	f.stmt.On("Query", false).Return(cursor, nil)
	f.stmt.On("Close").Return(nil)
}

func customerRow(id int64, name string, status string, age int64, credit interface{}) []interface{} {
	return []interface{}{id, name, status, age, credit, nil}
}
