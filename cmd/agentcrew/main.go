// Package main provides the AgentCrew CLI.
//
// Usage:
//
//	agentcrew [flags] <command> [args]
//
// Commands:
//
//	run       - Run a task across one or more agents
//	dispatch  - Send a task to a single agent
//	route     - Show which agent the keyword router picks
//	agents    - List configured agents
//
// Agents, routing and telemetry are read from a YAML file given with
// --config (see the config package for the format).
package main

import (
	"fmt"
	"os"

	"github.com/hupe1980/agentcrew/cmd/agentcrew/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
