// Command reqsign prints the headers and query parameters that
// authenticate an HTTP request under a configured scheme, and drives the
// OAuth 2.0 grants that obtain bearer tokens.
package main

import (
	"fmt"
	"os"
)

// Version is set via ldflags at build time.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
