// Package main implements fixturectl, a command-line companion to the testdb
// package. It checks that a migration set applies cleanly to a fresh database
// and removes fixture databases that crashed test runs left behind.
package main

import (
	"fmt"
	"os"

	"github.com/phrazzld/pgfixture/internal/ciutil"
	"github.com/phrazzld/pgfixture/internal/redact"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", errorMessage(err))
		os.Exit(1)
	}
}

// errorMessage strips credentials from err. CI logs are often public, so
// hosts and file paths are removed there as well.
func errorMessage(err error) string {
	if ciutil.IsCI() {
		return redact.Error(err)
	}
	return redact.Credentials(err.Error())
}
