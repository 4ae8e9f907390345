// Package main provides the entry point for the nodeatlas CLI tool.
package main

import "github.com/agentstation/nodeatlas/cmd/nodeatlas/cmd"

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.Execute(version, commit, date)
}
