// db package contains the statement binding contracts of the engine and their
// database/sql and gocql implementations
package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gocql/gocql"
)

// Binder binds values to a statement
type Binder interface {
	Bind(ctx context.Context, sql string, values []interface{}) (Statement, error)
}

// Statement is a bound statement. Cancel aborts it from another goroutine,
// Close releases it and any cursor it opened. Close may be called more than once.
type Statement interface {
	// Query executes the statement for rows. forwardOnly asks for a forward only
	// cursor on platforms where that is a hint.
	Query(forwardOnly bool) (Cursor, error)
	// Exec executes the statement and returns the affected row count
	Exec() (int64, error)
	Cancel()
	Close() error
}

// Cursor iterates the rows of an executed statement
type Cursor interface {
	Columns() []string
	Next() bool
	// Values returns the values of the current row in column order
	Values() ([]interface{}, error)
	Err() error
	Close() error
}

// OpenSQL opens and pings a database/sql database
func OpenSQL(ctx context.Context, driver string, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenCql connects to a Cassandra cluster, targeting the data center of the first host found
func OpenCql(keyspace string, timeout time.Duration, hosts ...string) (*gocql.Session, error) {
	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = keyspace
	cluster.Timeout = timeout
	cluster.ConnectTimeout = timeout
	cluster.PoolConfig.HostSelectionPolicy = NewDefaultHostSelectionPolicy()

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errors.New("failed to create session")
	}
	return session, nil
}
