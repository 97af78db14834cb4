package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/datastax/ormquery/log"
)

var ErrTransactionEnded = errors.New("transaction has already ended")

// Transaction is the unit of work a query runs in. Log lines are written to the
// transaction's sink tagged with its id.
type Transaction interface {
	ID() string
	Binder() Binder
	IsLogSQL() bool
	IsLogSummary() bool
	LogSQL(msg string)
	LogSummary(msg string)
	LogAudit(user string, msg string)
	IsActive() bool
	Commit() error
	// End rolls back a transaction that was not committed. Calling End on an
	// ended transaction does nothing.
	End() error
}

type txnBase struct {
	id     string
	sink   log.TxnLogSink
	active atomic.Bool
}

func newTxnBase(sink log.TxnLogSink) txnBase {
	t := txnBase{id: uuid.New().String(), sink: sink}
	t.active.Store(true)
	return t
}

func (t *txnBase) ID() string         { return t.id }
func (t *txnBase) IsLogSQL() bool     { return t.sink != nil }
func (t *txnBase) IsLogSummary() bool { return t.sink != nil }
func (t *txnBase) IsActive() bool     { return t.active.Load() }

func (t *txnBase) LogSQL(msg string) {
	if t.sink != nil {
		t.sink.LogSQL(t.id, msg)
	}
}

func (t *txnBase) LogSummary(msg string) {
	if t.sink != nil {
		t.sink.LogSummary(t.id, msg)
	}
}

func (t *txnBase) LogAudit(user string, msg string) {
	if t.sink != nil {
		t.sink.LogAudit(t.id, user, msg)
	}
}

type sqlTransaction struct {
	txnBase
	tx     *sql.Tx
	binder *SQLBinder
}

// NewSQLTransaction begins a database/sql transaction. A nil sink disables logging.
func NewSQLTransaction(ctx context.Context, db *sql.DB, sink log.TxnLogSink, opts *sql.TxOptions) (Transaction, error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &sqlTransaction{txnBase: newTxnBase(sink), tx: tx, binder: NewSQLBinder(tx)}, nil
}

func (t *sqlTransaction) Binder() Binder {
	return t.binder
}

func (t *sqlTransaction) Commit() error {
	if !t.active.CAS(true, false) {
		return ErrTransactionEnded
	}
	return t.tx.Commit()
}

func (t *sqlTransaction) End() error {
	if !t.active.CAS(true, false) {
		return nil
	}
	return t.tx.Rollback()
}

type cqlTransaction struct {
	txnBase
	binder *CqlBinder
}

// NewCqlTransaction returns a transaction over a Cassandra session. Cassandra has no
// transactions: statements apply as they execute and End only marks the end of the unit of work.
func NewCqlTransaction(binder *CqlBinder, sink log.TxnLogSink) Transaction {
	return &cqlTransaction{txnBase: newTxnBase(sink), binder: binder}
}

func (t *cqlTransaction) Binder() Binder {
	return t.binder
}

func (t *cqlTransaction) Commit() error {
	if !t.active.CAS(true, false) {
		return ErrTransactionEnded
	}
	return nil
}

func (t *cqlTransaction) End() error {
	t.active.Store(false)
	return nil
}
