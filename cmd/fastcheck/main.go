package main

import (
	"os"

	"github.com/ErikING-Chile/fast-check/cmd/fastcheck/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
