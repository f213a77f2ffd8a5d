// Command taxcalc computes Japanese individual income tax returns from YAML
// or JSON input, compares what-if scenarios and serves the engine over HTTP.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
