package main

import (
	"github.com/linearmcp/linear-mcp/internal/cmd"
	"github.com/linearmcp/linear-mcp/internal/server/handlers"
)

// Set via ldflags: -X main.version=1.0.0 -X main.commit=abc123 -X main.buildDate=2026-10-01
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, buildDate)
	handlers.SetVersionInfo(version, commit, buildDate)

	if err := cmd.Execute(); err != nil {
		cmd.ExitWithCodeStderr(cmd.ExitCodeFor(err), "Command failed", err)
	}
}
