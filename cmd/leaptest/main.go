// Package main provides the leaptest command.
package main

import (
	"os"

	"github.com/leapstack-labs/leaptest/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
