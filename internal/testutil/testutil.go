package testutil

import (
	"database/sql"
	"os"
	"strings"

	"github.com/datastax/ormquery/log"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Schema creates the tables of the fixture entities on sqlite
var Schema = []string{
	`create table customer (
		id integer primary key,
		name varchar(100) not null,
		status varchar(20),
		age integer,
		credit varchar(40),
		doc text
	)`,
	`create table orders (
		id integer primary key,
		customer_id integer not null references customer(id),
		status varchar(20),
		total real
	)`,
	`create table contact (
		id integer primary key,
		customer_id integer not null references customer(id),
		email varchar(100)
	)`,
	`create table customer_with_history (
		id integer not null,
		name varchar(100) not null,
		status varchar(20),
		age integer,
		credit varchar(40),
		doc text,
		sys_period_start integer not null,
		sys_period_end integer
	)`,
}

// SeedData inserts three customers. Rob has two orders, Ana has one and Jim none.
var SeedData = []string{
	`insert into customer (id, name, status, age, credit, doc) values
		(1, 'Rob', 'NEW', 30, '100.50', '{"score":{"total":12}}'),
		(2, 'Ana', 'ACTIVE', 41, '20', '{"score":{"total":3}}'),
		(3, 'Jim', 'NEW', 25, null, null)`,
	`insert into orders (id, customer_id, status, total) values
		(10, 1, 'NEW', 12.5),
		(11, 1, 'SHIPPED', 99),
		(12, 2, 'NEW', 7.25)`,
	`insert into contact (id, customer_id, email) values
		(100, 1, 'rob@example.com'),
		(101, 2, 'ana@example.com')`,
	`insert into customer_with_history (id, name, status, age, credit, doc, sys_period_start, sys_period_end) values
		(1, 'Rob', 'NEW', 28, '10', null, 100, 200),
		(1, 'Rob', 'ACTIVE', 29, '10', null, 200, 300),
		(1, 'Rob', 'NEW', 30, '100.50', null, 300, null)`,
}

// SetupSQLiteFixture opens a private in memory sqlite database with the fixture schema and data
func SetupSQLiteFixture(queries ...string) *sql.DB {
	db, err := sql.Open("sqlite3", "file::memory:?cache=private")
	PanicIfError(err)
	// an in memory database lives as long as its connection
	db.SetMaxOpenConns(1)

	for _, list := range [][]string{Schema, SeedData, queries} {
		for _, query := range list {
			_, err := db.Exec(query)
			PanicIfError(err)
		}
	}
	return db
}

func PanicIfError(err error) {
	if err != nil {
		panic(err)
	}
}

func TestLogger() log.Logger {
	if strings.ToUpper(os.Getenv("TEST_TRACE")) == "ON" {
		logger, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		return log.NewZapLogger(logger)
	}

	return log.NewZapLogger(zap.NewNop())
}
