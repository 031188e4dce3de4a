package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/teamchat/tchat/internal/client"
	"github.com/teamchat/tchat/internal/panel"
)

// View renders the current panel snapshot.
func (m Model) View() string {
	snap := m.panel.Snapshot()

	var header, body, footer string
	switch v := snap.View.(type) {
	case panel.ThreadView:
		header = headerStyle.Render("← " + roomTitle(snap, v.RoomID))
		body = m.threadBody(snap)
		footer = inputBoxStyle.Width(max(m.width-2, minWidth)).Render(m.composer.View())
	case panel.NewChatView:
		header = headerStyle.Render("New chat")
		body = m.viewResults(snap)
		footer = inputBoxStyle.Width(max(m.width-2, minWidth)).Render(m.search.View())
	default:
		header = headerStyle.Render("Messages")
		body = m.viewRoomList(snap)
		footer = helpStyle.Render("↑/↓ move • enter open • n new chat • r refresh • q quit")
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer, m.viewStatus())
}

// threadBody renders the viewport, or the snapshot's thread when the panel
// moved on since the last Update.
func (m Model) threadBody(snap panel.Snapshot) string {
	if snap.ThreadRevision == m.revision {
		return m.thread.View()
	}
	vp := m.thread
	vp.SetContent(renderThread(snap.Messages, m.panel.Me().UserID, vp.Width))
	vp.GotoBottom()
	return vp.View()
}

func (m Model) viewRoomList(snap panel.Snapshot) string {
	if m.loading && len(snap.Rooms) == 0 {
		return previewStyle.Render("  Loading conversations...")
	}
	if len(snap.Rooms) == 0 {
		return previewStyle.Render("  No conversations yet. Press n to start one.")
	}

	width := max(m.width-4, minWidth)
	var b strings.Builder
	for i, entry := range snap.Rooms {
		style := roomStyle
		cursor := "  "
		if i == m.roomCursor {
			style = selectedRoomStyle
			cursor = "› "
		}
		line := cursor + avatarStyle.Render(entry.Avatar.Glyph()) + " " + entry.Name
		if last := entry.Room.LastMessage; last != nil {
			line += "  " + previewStyle.Render(truncate(singleLine(last.Content), width-len(entry.Name)-8))
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) viewResults(snap panel.Snapshot) string {
	if strings.TrimSpace(snap.Query) == "" {
		return previewStyle.Render("  Type a name to search.")
	}
	if len(snap.Results) == 0 {
		return previewStyle.Render("  No people found.")
	}

	var b strings.Builder
	for i, u := range snap.Results {
		style := roomStyle
		cursor := "  "
		if i == m.resultCursor {
			style = selectedRoomStyle
			cursor = "› "
		}
		line := cursor + panel.FullName(u)
		if details := userDetails(u); details != "" {
			line += "  " + previewStyle.Render(details)
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) viewStatus() string {
	switch {
	case m.status != "" && m.statusErr:
		return errorStyle.Render(m.status)
	case m.status != "":
		return helpStyle.Render(m.status)
	case m.sending:
		return helpStyle.Render("Sending...")
	case m.loading:
		return helpStyle.Render("Loading...")
	}
	if _, ok := m.panel.View().(panel.ThreadView); ok {
		return helpStyle.Render("enter send • esc back • pgup/pgdown scroll")
	}
	if _, ok := m.panel.View().(panel.NewChatView); ok {
		return helpStyle.Render("↑/↓ move • enter start chat • esc back")
	}
	return ""
}

// renderThread lays out messages oldest first. Own messages are right
// aligned without a sender label; others carry the sender's name.
func renderThread(msgs []client.Message, me string, width int) string {
	if len(msgs) == 0 {
		return previewStyle.Render("  No messages yet. Say hello!")
	}
	if width < minWidth {
		width = minWidth
	}
	bubbleWidth := width * 3 / 4

	blocks := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		stamp := timeStyle.Render(messageTime(msg.CreatedAt))
		if panel.IsOwn(msg, me) {
			bubble := renderBubble(ownBubbleStyle, msg.Content, bubbleWidth)
			block := lipgloss.JoinVertical(lipgloss.Right, bubble, stamp)
			blocks = append(blocks, lipgloss.PlaceHorizontal(width, lipgloss.Right, block))
			continue
		}
		label := senderStyle.Render(panel.SenderLabel(msg, me))
		bubble := renderBubble(otherBubbleStyle, msg.Content, bubbleWidth)
		blocks = append(blocks, lipgloss.JoinVertical(lipgloss.Left, label, bubble, stamp))
	}
	return strings.Join(blocks, "\n")
}

// renderBubble wraps long content at width; short content keeps its own width.
func renderBubble(style lipgloss.Style, content string, width int) string {
	if lipgloss.Width(content)+style.GetHorizontalFrameSize() > width {
		style = style.Width(width - style.GetHorizontalBorderSize())
	}
	return style.Render(content)
}

func roomTitle(snap panel.Snapshot, roomID string) string {
	for _, e := range snap.Rooms {
		if e.Room.ID == roomID {
			return e.Name
		}
	}
	return panel.UnknownPlaceholder
}

func userDetails(u client.UserSummary) string {
	var parts []string
	if u.Role != nil && *u.Role != "" {
		parts = append(parts, *u.Role)
	}
	if u.Department != nil && *u.Department != "" {
		parts = append(parts, *u.Department)
	}
	if u.Status != "" {
		parts = append(parts, u.Status)
	}
	return strings.Join(parts, " · ")
}

// messageTime shows the local clock time of an RFC 3339 timestamp.
func messageTime(ts string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	t = t.Local()
	if time.Since(t) > 24*time.Hour {
		return t.Format("Jan 2 15:04")
	}
	return t.Format("15:04")
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if n <= 1 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return fmt.Sprintf("%s…", string(r[:n-1]))
}
