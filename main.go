package main

import "github.com/datastax/ormquery/cmd"

func main() {
	cmd.Execute()
}
