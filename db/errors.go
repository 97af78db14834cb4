package db

import (
	"fmt"

	"github.com/pkg/errors"
)

// PersistenceError is the single error type for failures executing a statement.
// Err keeps the driver error with the stack where it was caught.
type PersistenceError struct {
	Err     error
	TxnID   string
	BindLog string
	SQL     string
}

func NewPersistenceError(err error, txn Transaction, bindLog string, sql string) *PersistenceError {
	e := &PersistenceError{Err: errors.WithStack(err), BindLog: bindLog, SQL: sql}
	if txn != nil {
		e.TxnID = txn.ID()
	}
	return e
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("query threw SQLException: %s bind[%s] sql[%s] txn[%s]",
		errors.Cause(e.Err), e.BindLog, e.SQL, e.TxnID)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Cause returns the driver error
func (e *PersistenceError) Cause() error {
	return errors.Cause(e.Err)
}

// Format prints the stack of the driver error with %+v
func (e *PersistenceError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "%s\n%+v", e.Error(), e.Err)
		return
	}
	fmt.Fprint(s, e.Error())
}
