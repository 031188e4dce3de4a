package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teamchat/tchat/internal/client"
	"github.com/teamchat/tchat/internal/panel"
)

var roomsJSON bool

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List conversations",
	Long: `List your conversations in the order the server returns them.

Direct chats are named after the other member; unnamed groups show
"Group Chat".

Examples:
  tchat rooms           # List conversations
  tchat rooms --json    # Output as JSON`,
	Args: cobra.NoArgs,
	RunE: runRooms,
}

func init() {
	roomsCmd.Flags().BoolVar(&roomsJSON, "json", false, "Output as JSON")
}

// RoomSummary is a room list row.
type RoomSummary struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	IsGroup     bool            `json:"is_group"`
	Avatar      panel.Avatar    `json:"avatar"`
	LastMessage *client.Message `json:"last_message,omitempty"`
}

// RoomsResult is the output of `tchat rooms`.
type RoomsResult struct {
	Rooms []RoomSummary `json:"rooms"`
	Count int           `json:"count"`
}

func runRooms(cmd *cobra.Command, args []string) error {
	s, err := loadSession()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
	defer cancel()

	result, err := fetchRooms(ctx, s)
	if err != nil {
		return err
	}

	fmt.Print(formatRoomsOutput(result, roomsJSON))
	return nil
}

func fetchRooms(ctx context.Context, s *session) (*RoomsResult, error) {
	p, err := s.openPanel(ctx)
	if err != nil {
		return nil, err
	}
	defer finish(p)

	snap := p.Snapshot()
	result := &RoomsResult{Rooms: make([]RoomSummary, 0, len(snap.Rooms))}
	for _, e := range snap.Rooms {
		result.Rooms = append(result.Rooms, RoomSummary{
			ID:          e.Room.ID,
			Name:        e.Name,
			IsGroup:     e.Room.IsGroup,
			Avatar:      e.Avatar,
			LastMessage: e.Room.LastMessage,
		})
	}
	result.Count = len(result.Rooms)
	return result, nil
}

func formatRoomsOutput(result *RoomsResult, asJSON bool) string {
	if asJSON {
		return marshalJSONOrFallback(result)
	}

	if len(result.Rooms) == 0 {
		return "No conversations yet. Start one with: tchat direct <user-id>\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("CONVERSATIONS (%d)\n", result.Count))
	for _, r := range result.Rooms {
		sb.WriteString(fmt.Sprintf("  %s %s  (%s)\n", r.Avatar.Glyph(), r.Name, r.ID))
		if r.LastMessage != nil {
			line := preview(r.LastMessage.Content, previewLimit)
			if r.LastMessage.CreatedAt != "" {
				line += " — " + formatTimeAgo(r.LastMessage.CreatedAt)
			}
			sb.WriteString(fmt.Sprintf("      %s\n", line))
		}
	}
	return sb.String()
}
