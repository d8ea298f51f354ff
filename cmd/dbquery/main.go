// Package main provides the dbquery command.
package main

import (
	"os"

	"github.com/syssam/dbquery/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
