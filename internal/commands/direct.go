package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var directJSON bool

var directCmd = &cobra.Command{
	Use:   "direct <user-id>",
	Short: "Start or reopen a direct chat",
	Long: `Start a direct chat with a user, or reopen the existing one, and show it.

Examples:
  tchat direct u2
  tchat direct u2 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runDirect,
}

func init() {
	directCmd.Flags().BoolVar(&directJSON, "json", false, "Output as JSON")
}

func runDirect(cmd *cobra.Command, args []string) error {
	userID, err := requireArg("user id", args[0])
	if err != nil {
		return err
	}
	s, err := loadSession()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
	defer cancel()

	result, err := startDirect(ctx, s, userID)
	if err != nil {
		return err
	}

	fmt.Print(formatThreadOutput(result, directJSON))
	return nil
}

func startDirect(ctx context.Context, s *session, userID string) (*ThreadResult, error) {
	if userID == s.me.UserID {
		return nil, fmt.Errorf("cannot start a direct chat with yourself")
	}

	p, err := s.openPanel(ctx)
	if err != nil {
		return nil, err
	}
	defer finish(p)

	p.EnterNewChat()
	if _, err := p.StartDirect(ctx, userID); err != nil {
		return nil, wrapRequestError("starting chat", err)
	}
	roomID, _ := activeRoom(p)
	return threadResult(p, roomID), nil
}
