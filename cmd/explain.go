package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/datastax/ormquery/endpoint"
	"github.com/datastax/ormquery/engine"
)

var explainCmd = &cobra.Command{
	Use:   "explain TYPE QUERY [PARAMS...]",
	Short: "Compile a query and print its sql, binds and plan key",
	Long: "Compile a query and print its sql, binds and plan key. Operations: " +
		strings.Join(engine.Operations(), ","),
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
		console, err := endpoint.NewConsoleConfig(cfg, r).NewConsole()
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		operation, _ := flags.GetString("operation")
		draft, _ := flags.GetBool("draft")
		req := endpoint.ExplainRequest{
			Operation: operation,
			Query:     args[1],
			Params:    parseParams(args[2:]),
			Draft:     draft,
		}
		if asOf, _ := flags.GetString("as-of"); asOf != "" {
			req.AsOf = parseParam(asOf)
		}
		if between, _ := flags.GetStringSlice("between"); len(between) == 2 {
			req.VersionStart, req.VersionEnd = parseParam(between[0]), parseParam(between[1])
		}

		res, err := console.Explain(context.Background(), args[0], req)
		if err != nil {
			return err
		}
		return printResult(res)
	},
}

func init() {
	flags := explainCmd.Flags()
	flags.String("operation", "findMany", "operation to compile")
	flags.String("as-of", "", "read the versions valid at this time")
	flags.StringSlice("between", nil, "start,end of a find versions query")
	flags.Bool("draft", false, "read the draft tables")
}

func parseParams(args []string) []interface{} {
	params := make([]interface{}, 0, len(args))
	for _, arg := range args {
		params = append(params, parseParam(arg))
	}
	return params
}

// parseParam converts a command line value to an integer, a float or a bool when it
// reads as one, otherwise the text is used as is
func parseParam(arg string) interface{} {
	if i, err := cast.ToInt64E(arg); err == nil {
		return i
	}
	if f, err := cast.ToFloat64E(arg); err == nil {
		return f
	}
	switch arg {
	case "true", "false":
		return cast.ToBool(arg)
	}
	return arg
}
