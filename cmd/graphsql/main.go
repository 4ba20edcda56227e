// Command graphsql translates graph patterns to SQL.
package main

import (
	"os"

	"github.com/roach88/graphsql/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
