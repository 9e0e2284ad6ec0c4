// ndstore command line
// Imports, queries, aggregates and serves record collections
package main

import (
	"fmt"
	"os"

	"github.com/nainya/ndstore/internal/cli"
	"github.com/nainya/ndstore/pkg/errs"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode separates caller mistakes from runtime failures
func exitCode(err error) int {
	switch errs.KindOf(err) {
	case errs.StorageFailure, errs.Unknown:
		return 1
	}
	return 2
}
