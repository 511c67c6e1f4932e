package main

import (
	"os"

	"github.com/rustyeddy/arbibot/cmd/arbibot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
