// Package commands implements the tchat CLI commands.
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/teamchat/tchat/internal/config"
)

var versionInfo struct {
	version string
	commit  string
	date    string
}

// SetVersionInfo sets version information from main (populated by goreleaser).
func SetVersionInfo(version, commit, date string) {
	versionInfo.version = version
	versionInfo.commit = commit
	versionInfo.date = date
}

var (
	configPathFlag string
	logLevelFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "tchat",
	Short: "Team chat in the terminal",
	Long: `tchat is a terminal client for the team chat backend.

Run without arguments in a terminal to open the interactive chat panel.
The subcommands expose the same panel operations for scripting.

Commands:
  tchat                    - Open the interactive panel (same as 'tchat panel')
  tchat rooms              - List conversations
  tchat messages <room>    - Show a conversation (marks it read)
  tchat send <room> <text> - Send a message
  tchat users <query>      - Search people
  tchat direct <user>      - Start or reopen a direct chat
  tchat whoami             - Show the current user
  tchat health             - Probe backend instances

Configuration is read from a .tchat file (searched up to the git root).

Environment variables:
  TCHAT_URL        - Backend base URL (default: http://localhost:3001)
  TCHAT_TOKEN      - Bearer token
  TCHAT_USER_ID    - Current user id
  TCHAT_LOG_LEVEL  - debug, info, warn or error`,
	// main.go prints errors
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          runPanel,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.SetPath(configPathFlag)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "Use an alternate .tchat config file")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override log level (debug, info, warn, error)")

	rootCmd.AddCommand(panelCmd)
	rootCmd.AddCommand(roomsCmd)
	rootCmd.AddCommand(messagesCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(directCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(healthCmd)
}

func loadDotenvBestEffort() {
	// Prefer the directory holding .tchat so subdir invocations work.
	if root, err := config.WorkspaceRoot(); err == nil {
		_ = godotenv.Load(filepath.Join(root, ".env"))
		return
	}
	_ = godotenv.Load()
}

// Execute runs the root command.
func Execute() error {
	defer config.SetPath("")

	loadDotenvBestEffort()

	if len(os.Args) > 1 && (os.Args[1] == "-V" || os.Args[1] == "--version") {
		fmt.Print(formatVersion())
		return nil
	}

	return rootCmd.Execute()
}

func formatVersion() string {
	out := fmt.Sprintf("tchat %s\n", versionInfo.version)
	if versionInfo.commit != "" && versionInfo.commit != "none" {
		out += fmt.Sprintf("  commit: %s\n", versionInfo.commit)
	}
	if versionInfo.date != "" && versionInfo.date != "unknown" {
		out += fmt.Sprintf("  built:  %s\n", versionInfo.date)
	}
	return out
}
