package main

import (
	"os"

	"github.com/abramin/codegraph/cmd/codegraph/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
