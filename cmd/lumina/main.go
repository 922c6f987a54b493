package main

import (
	"os"

	"github.com/shaveenudayanga/lumina/cmd/lumina/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
