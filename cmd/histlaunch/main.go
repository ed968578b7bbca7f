// Package main is the entry point for the histlaunch CLI.
package main

import (
	"os"

	"github.com/runger/histlaunch/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
