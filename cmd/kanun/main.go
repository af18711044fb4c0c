// Package main provides the entry point for the kanun CLI.
package main

import (
	"os"

	"github.com/kanunlaw/kanun/cmd/kanun/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
