package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teamchat/tchat/internal/panel"
)

var sendJSON bool

var sendCmd = &cobra.Command{
	Use:   "send <room-id> <message>",
	Short: "Send a message to a conversation",
	Long: `Send a message to a conversation. Remaining arguments are joined with
spaces; surrounding whitespace is trimmed and empty messages are rejected.

Examples:
  tchat send r1 "On my way"
  tchat send r1 ship it --json`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().BoolVar(&sendJSON, "json", false, "Output as JSON")
}

// SendResult is the output of `tchat send`.
type SendResult struct {
	RoomID  string        `json:"room_id"`
	Name    string        `json:"name"`
	Message ThreadMessage `json:"message"`
}

func runSend(cmd *cobra.Command, args []string) error {
	roomID, err := requireArg("room id", args[0])
	if err != nil {
		return err
	}
	s, err := loadSession()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
	defer cancel()

	result, err := sendToRoom(ctx, s, roomID, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}

	fmt.Print(formatSendOutput(result, sendJSON))
	return nil
}

// sendToRoom opens the room's thread and sends text through the composer.
func sendToRoom(ctx context.Context, s *session, roomID, text string) (*SendResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, panel.ErrEmptyDraft
	}

	p, err := s.openPanel(ctx)
	if err != nil {
		return nil, err
	}
	defer finish(p)

	if _, err := p.Select(ctx, roomID); err != nil {
		return nil, wrapRequestError("loading messages", err)
	}
	p.SetDraft(text)
	msg, _, err := p.Send(ctx)
	if err != nil {
		if errors.Is(err, panel.ErrEmptyDraft) {
			return nil, err
		}
		return nil, wrapRequestError("sending message", err)
	}

	thread := threadResult(p, roomID)
	return &SendResult{
		RoomID:  roomID,
		Name:    thread.Name,
		Message: toThreadMessage(*msg, s.me.UserID),
	}, nil
}

func formatSendOutput(result *SendResult, asJSON bool) string {
	if asJSON {
		return marshalJSONOrFallback(result)
	}
	return fmt.Sprintf("Message sent to %s (%s)\nBody: %s\n", result.Name, result.RoomID, result.Message.Content)
}
