// Package main is the entry point for the studio CLI.
//
// Usage:
//
//	studio [flags] <command> [args]
//
// Commands:
//
//	parse    - Parse a generation stream into a project
//	preview  - Parse a stream and render a preview
//	export   - Export a parsed project to a directory or object store
//	serve    - Live preview server over HTTP + websocket
//	session  - Manage persisted sessions
//	prompt   - Print wire-format instructions for a generator
//	version  - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/canvasml/studio/cmd/studio/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
