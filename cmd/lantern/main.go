// Package main is the entry point for the Lantern CLI.
package main

import (
	"os"

	"github.com/mrz1836/lantern/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
