package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/teamchat/tchat/internal/client"
	"github.com/teamchat/tchat/internal/panel"
)

// previewLimit bounds last-message previews in the room list.
const previewLimit = 60

func marshalJSONOrFallback(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err == nil {
		return string(data) + "\n"
	}

	// --json callers always get valid JSON.
	fallback, fallbackErr := json.Marshal(map[string]string{
		"error": "failed to marshal JSON output",
	})
	if fallbackErr != nil {
		return "{}\n"
	}
	return string(fallback) + "\n"
}

// ThreadMessage is a message as printed by the CLI.
type ThreadMessage struct {
	ID        string `json:"id"`
	SenderID  string `json:"sender_id"`
	Sender    string `json:"sender,omitempty"`
	Own       bool   `json:"own"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at,omitempty"`
}

func toThreadMessage(msg client.Message, me string) ThreadMessage {
	sender := panel.FullName(msg.Sender)
	if sender == "" {
		sender = msg.SenderID
	}
	return ThreadMessage{
		ID:        msg.ID,
		SenderID:  msg.SenderID,
		Sender:    sender,
		Own:       panel.IsOwn(msg, me),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
}

func parseTimeBestEffort(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	// Accept RFC3339 and RFC3339Nano (most server timestamps).
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, true
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, true
	}
	return time.Time{}, false
}

// formatTimeAgo formats a timestamp string as "X ago" for human-friendly display.
// If parsing fails, it falls back to the raw timestamp.
func formatTimeAgo(timestamp string) string {
	ts, ok := parseTimeBestEffort(timestamp)
	if !ok {
		return timestamp
	}
	d := time.Since(ts)
	if d < 0 {
		d = 0
	}
	secs := int(d.Seconds())
	if secs < 60 {
		return fmt.Sprintf("%ds ago", secs)
	}
	mins := secs / 60
	if mins < 60 {
		return fmt.Sprintf("%dm ago", mins)
	}
	hours := mins / 60
	if hours < 48 {
		return fmt.Sprintf("%dh ago", hours)
	}
	days := hours / 24
	return fmt.Sprintf("%dd ago", days)
}

// preview flattens and shortens message content for one-line display.
func preview(content string, limit int) string {
	flat := strings.Join(strings.Fields(content), " ")
	r := []rune(flat)
	if len(r) <= limit {
		return flat
	}
	return string(r[:limit-3]) + "..."
}
