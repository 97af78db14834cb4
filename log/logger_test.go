package log

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerDebugEnabled(t *testing.T) {
	assert.False(t, NewNopLogger().DebugEnabled())
	assert.True(t, NewZapLogger(zap.NewExample()).DebugEnabled())
}

func TestLoggerSinkWritesNamedEntries(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sink := NewLoggerSink(NewZapLogger(zap.New(core)))

	sink.LogSQL("txn1", "select t0.id from customer t0")
	sink.LogSummary("txn1", "FindMany type[Customer]")
	sink.LogAudit("txn1", "alice", "FindBean type[Customer]")

	entries := logs.All()
	assert.Len(t, entries, 3)
	assert.Equal(t, "sql", entries[0].LoggerName)
	assert.Equal(t, "select t0.id from customer t0", entries[0].Message)
	assert.Equal(t, "summary", entries[1].LoggerName)
	assert.Equal(t, "audit", entries[2].LoggerName)
	assert.Equal(t, zapcore.InfoLevel, entries[2].Level)
	assert.Equal(t, "alice", entries[2].ContextMap()["user"])
}

func TestLoggingHandler(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := NewLoggingHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), NewZapLogger(zap.New(core)))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/console/plans", nil))

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "request", entries[0].Message)
	assert.Equal(t, "/console/plans", entries[0].ContextMap()["path"])
	assert.Equal(t, int64(http.StatusTeapot), entries[0].ContextMap()["status"])
}
