package cmd

import (
	"github.com/spf13/cobra"

	"github.com/datastax/ormquery/endpoint"
	"github.com/datastax/ormquery/query"
)

var parseCmd = &cobra.Command{
	Use:   "parse QUERY",
	Short: "Parse query language text and print its canonical form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := query.Parse(args[0])
		if err != nil {
			return err
		}
		return printResult(endpoint.NewParseResponse(d))
	},
}

var propsCmd = &cobra.Command{
	Use:   "props OPTIONS",
	Short: "Parse the options of a path, e.g. \"name,+lazy(20)\"",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := query.NewProperties("", args[0])
		if err != nil {
			return err
		}
		return printResult(endpoint.NewPathResponse(p))
	},
}
