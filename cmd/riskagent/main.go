package main

import (
	"os"

	"github.com/polysense/riskagent/cmd/riskagent/commands"
)

// main is the entry point for the riskagent CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
