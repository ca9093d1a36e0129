// Command twinq renders and runs query requests against relational
// databases and search indexes.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/twinq/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
