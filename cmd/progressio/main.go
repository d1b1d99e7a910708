// Command progressio processes local files while reporting read progress.
package main

import (
	"os"

	"github.com/meigma/progressio/cmd/progressio/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
