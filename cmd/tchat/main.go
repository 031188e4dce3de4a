// tchat - terminal client for the team chat backend
//
// Opens an interactive chat panel (conversation list, message thread,
// composer and people search) and exposes the same operations as scriptable
// subcommands, plus a health probe for backend instances.
package main

import (
	"fmt"
	"os"

	"github.com/teamchat/tchat/internal/commands"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
