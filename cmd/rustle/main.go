// Package main is the entry point of the rustle CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/rustle/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
