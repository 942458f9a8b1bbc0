// asngen groups a pool of exposure records into associations.
//
// Usage:
//
//	# Check a rules directory
//	asngen validate ./rules
//
//	# Generate associations and record the run
//	asngen generate pool.csv --rules ./rules --db ./asngen.db
//
//	# Inspect recorded runs
//	asngen runs --db ./asngen.db
//	asngen show --db ./asngen.db <run-id>
//
//	# Run scenario tests
//	asngen test ./rules ./scenarios
package main

import (
	"fmt"
	"os"

	"github.com/roach88/asngen/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
