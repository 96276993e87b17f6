package main

import (
	"os"

	"github.com/bianoble/bundlepack/cmd/bundlepack/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
