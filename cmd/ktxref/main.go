package main

import (
	"log"
	"os"

	"github.com/ktxref/ktxref/internal/cli"
)

func main() {
	// stdout is reserved for command output and the MCP stdio transport.
	log.SetOutput(os.Stderr)
	cli.Execute()
}
