package log

// TxnLogSink receives the pre-formatted SQL and summary lines of a transaction.
// Formatting happens in the engine; a sink only writes.
type TxnLogSink interface {
	LogSQL(txnID string, msg string)
	LogSummary(txnID string, msg string)
	LogAudit(txnID string, user string, msg string)
}

type loggerSink struct {
	sql     Logger
	summary Logger
	audit   Logger
}

// NewLoggerSink writes transaction lines to child loggers "sql", "summary" and "audit"
func NewLoggerSink(logger Logger) TxnLogSink {
	return &loggerSink{
		sql:     logger.Named("sql"),
		summary: logger.Named("summary"),
		audit:   logger.Named("audit"),
	}
}

func (s *loggerSink) LogSQL(txnID string, msg string) {
	s.sql.Debug(msg, "txn", txnID)
}

func (s *loggerSink) LogSummary(txnID string, msg string) {
	s.summary.Debug(msg, "txn", txnID)
}

func (s *loggerSink) LogAudit(txnID string, user string, msg string) {
	s.audit.Info(msg, "txn", txnID, "user", user)
}
