package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teamchat/tchat/internal/panel"
)

var messagesJSON bool

var messagesCmd = &cobra.Command{
	Use:   "messages <room-id>",
	Short: "Show a conversation",
	Long: `Show the messages of a conversation, oldest first, and mark it read.

Examples:
  tchat messages r1          # Show conversation r1
  tchat messages r1 --json   # Output as JSON`,
	Args: cobra.ExactArgs(1),
	RunE: runMessages,
}

func init() {
	messagesCmd.Flags().BoolVar(&messagesJSON, "json", false, "Output as JSON")
}

// ThreadResult is a conversation as printed by the CLI.
type ThreadResult struct {
	RoomID   string          `json:"room_id"`
	Name     string          `json:"name"`
	IsGroup  bool            `json:"is_group"`
	Messages []ThreadMessage `json:"messages"`
	Count    int             `json:"count"`
}

func runMessages(cmd *cobra.Command, args []string) error {
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

	result, err := fetchThread(ctx, s, roomID)
	if err != nil {
		return err
	}

	fmt.Print(formatThreadOutput(result, messagesJSON))
	return nil
}

func fetchThread(ctx context.Context, s *session, roomID string) (*ThreadResult, error) {
	p, err := s.openPanel(ctx)
	if err != nil {
		return nil, err
	}
	defer finish(p)

	if _, err := p.Select(ctx, roomID); err != nil {
		return nil, wrapRequestError("loading messages", err)
	}
	return threadResult(p, roomID), nil
}

// threadResult captures the panel's current thread.
func threadResult(p *panel.Panel, roomID string) *ThreadResult {
	snap := p.Snapshot()
	me := p.Me().UserID

	result := &ThreadResult{RoomID: roomID, Name: panel.UnknownPlaceholder}
	if room, ok := p.Room(roomID); ok {
		result.Name = panel.DisplayName(room, me)
		result.IsGroup = room.IsGroup
	}
	result.Messages = make([]ThreadMessage, 0, len(snap.Messages))
	for _, m := range snap.Messages {
		result.Messages = append(result.Messages, toThreadMessage(m, me))
	}
	result.Count = len(result.Messages)
	return result
}

func formatThreadOutput(result *ThreadResult, asJSON bool) string {
	if asJSON {
		return marshalJSONOrFallback(result)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s (%s)\n", result.Name, result.RoomID))
	if len(result.Messages) == 0 {
		sb.WriteString("No messages yet.\n")
		return sb.String()
	}

	for _, m := range result.Messages {
		sb.WriteString("\n")
		who := m.Sender
		if m.Own {
			who = "You"
		}
		if m.CreatedAt != "" {
			sb.WriteString(fmt.Sprintf("%s — %s\n", who, formatTimeAgo(m.CreatedAt)))
		} else {
			sb.WriteString(fmt.Sprintf("%s\n", who))
		}
		sb.WriteString(fmt.Sprintf("  %s\n", strings.ReplaceAll(m.Content, "\n", "\n  ")))
	}
	return sb.String()
}
