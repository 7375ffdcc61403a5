// Command dbq runs the query dispatcher described by spec.md: it claims
// pending jobs under a two-tier concurrency budget, executes them against
// remote databases, exports results, and optionally transfers them over
// SSH.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
