// Package main implements the AgentCore admin CLI.
package main

import (
	"fmt"
	"os"

	"github.com/agentcore/agentcore/internal/commands"
	"github.com/agentcore/agentcore/internal/runtime"
)

var (
	// Version is set at build time
	version = "0.3.0"
)

func main() {
	rt, err := runtime.New(version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := commands.NewRoot(rt).Execute(); err != nil {
		os.Exit(1)
	}
}
