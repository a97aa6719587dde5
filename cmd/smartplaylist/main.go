package main

import (
	"os"

	"github.com/solatis/smartplaylist/cmd/smartplaylist/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
