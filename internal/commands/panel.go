package commands

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/teamchat/tchat/internal/logging"
	"github.com/teamchat/tchat/internal/panel"
	"github.com/teamchat/tchat/internal/tui"
)

var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Open the interactive chat panel",
	Long: `Open the interactive chat panel.

Keys:
  ↑/↓, enter   Move and open a conversation
  n            New chat (search people)
  esc          Back to the conversation list
  r            Refresh the conversation list
  q, ctrl+c    Quit

The panel owns the terminal, so logs go to log_file from .tchat (or
nowhere when unset).`,
	Args: cobra.NoArgs,
	RunE: runPanel,
}

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func runPanel(cmd *cobra.Command, args []string) error {
	if !isInteractive() {
		return fmt.Errorf("the chat panel needs a terminal; use 'tchat rooms' or 'tchat --help' for scripting")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var logOut io.Writer
	if cfg.LogFile != "" {
		f, err := logging.OpenFile(cfg.LogFile)
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}

	s, err := newSession(cfg, logOut)
	if err != nil {
		return err
	}

	sink := tui.NewTaskSink(32)
	p := panel.New(s.client, s.me, panel.Options{
		Logger:      s.logger,
		TaskTimeout: cfg.RequestTimeoutOrDefault(),
		OnTask:      sink.Send,
	})
	defer finish(p)

	model := tui.New(p, tui.Options{Timeout: cfg.RequestTimeoutOrDefault(), Tasks: sink})
	s.logger.Info("starting chat panel", "server", cfg.ServerURL)

	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
