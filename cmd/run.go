package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/datastax/ormquery/db"
	"github.com/datastax/ormquery/engine"
	"github.com/datastax/ormquery/log"
	"github.com/datastax/ormquery/plan"
)

// runResult is the output of the run command, only the field of the operation is set
type runResult struct {
	IDs   []interface{} `json:"ids,omitempty" yaml:"ids,omitempty"`
	Count *int          `json:"count,omitempty" yaml:"count,omitempty"`
	Rows  *int64        `json:"rows,omitempty" yaml:"rows,omitempty"`
}

var runCmd = &cobra.Command{
	Use:   "run TYPE QUERY [PARAMS...]",
	Short: "Execute an id, count, delete or update query against a database",
	Long: "Execute an id, count, delete or update query against a database. " +
		"Operations: findIds,findRowCount,delete,update",
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := engineConfig()
		if err != nil {
			return err
		}
		r, err := registry(cfg)
		if err != nil {
			return err
		}
		desc, ok := r.Descriptor(args[0])
		if !ok {
			return fmt.Errorf("unknown type %s", args[0])
		}

		flags := cmd.Flags()
		operation, _ := flags.GetString("operation")
		q, err := engine.ParseQuery(args[1], parseParams(args[2:])...)
		if err != nil {
			return err
		}
		sets, _ := flags.GetStringSlice("set")
		for _, set := range sets {
			parts := strings.SplitN(set, "=", 2)
			if len(parts) != 2 {
				return fmt.Errorf("invalid set %q, expected property=value", set)
			}
			q.SetValue(strings.TrimSpace(parts[0]), parseParam(parts[1]))
		}

		ctx := context.Background()
		txn, err := beginTransaction(ctx, cfg.Platform().Name)
		if err != nil {
			return err
		}
		defer txn.End()

		e := engine.NewEngine(cfg, plan.NewCache())
		request := engine.NewRequest(ctx, q, desc, txn)

		var res runResult
		switch operation {
		case "findIds":
			list, err := e.FindIds(request)
			if err != nil {
				return err
			}
			res.IDs = list.IDs
		case "findRowCount":
			count, err := e.FindRowCount(request)
			if err != nil {
				return err
			}
			res.Count = &count
		case "delete", "update":
			var rows int64
			if operation == "delete" {
				rows, err = e.Delete(request)
			} else {
				rows, err = e.Update(request)
			}
			if err != nil {
				return err
			}
			res.Rows = &rows
		default:
			return fmt.Errorf("operation %s can not be run from the command line", operation)
		}

		if err := txn.Commit(); err != nil {
			return err
		}
		return printResult(res)
	},
}

func init() {
	flags := runCmd.Flags()
	flags.String("operation", "findRowCount", "operation to run. options: findIds,findRowCount,delete,update")
	flags.StringSlice("set", nil, "property=value assignments of an update")
	flags.String("driver", "", "database/sql driver. options: postgres,mysql,sqlite3")
	flags.String("dsn", "", "database/sql data source name")
	flags.StringSliceP("hosts", "t", nil, "cassandra hosts")
	flags.String("keyspace", "", "cassandra keyspace")
	flags.Duration("timeout", 10*time.Second, "cassandra connect and query timeout")

	for _, name := range []string{"driver", "dsn", "hosts", "keyspace", "timeout"} {
		viper.BindPFlag(name, flags.Lookup(name))
	}
}

// beginTransaction opens the database of the platform. SQL and summaries are
// logged at debug level.
func beginTransaction(ctx context.Context, platform string) (db.Transaction, error) {
	var sink log.TxnLogSink
	if logger.DebugEnabled() {
		sink = log.NewLoggerSink(logger.Named("txn"))
	}

	if platform == "cassandra" {
		hosts := getStringSlice("hosts")
		if len(hosts) == 0 {
			return nil, errors.New("hosts are required for cassandra")
		}
		session, err := db.OpenCql(viper.GetString("keyspace"), viper.GetDuration("timeout"), hosts...)
		if err != nil {
			return nil, err
		}
		return db.NewCqlTransaction(db.NewCqlBinder(session), sink), nil
	}

	driver, dsn := viper.GetString("driver"), viper.GetString("dsn")
	if driver == "" || dsn == "" {
		return nil, errors.New("driver and dsn are required")
	}
	sqlDB, err := db.OpenSQL(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	return db.NewSQLTransaction(ctx, sqlDB, sink, nil)
}
