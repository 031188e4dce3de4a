package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/teamchat/tchat/internal/client"
	"github.com/teamchat/tchat/internal/panel"
)

// roomsLoadedMsg is sent when a room list fetch completes
type roomsLoadedMsg struct {
	outcome panel.Outcome
	err     error
}

// threadLoadedMsg is sent when a thread load completes
type threadLoadedMsg struct {
	roomID  string
	outcome panel.Outcome
	err     error
}

// sentMsg is sent when a message send completes
type sentMsg struct {
	message *client.Message
	outcome panel.Outcome
	err     error
}

// searchDoneMsg is sent when a user search completes
type searchDoneMsg struct {
	query   string
	outcome panel.Outcome
	err     error
}

// directStartedMsg is sent when a direct chat has been started and loaded
type directStartedMsg struct {
	userID  string
	outcome panel.Outcome
	err     error
}

// taskMsg wraps a finished background task
type taskMsg struct {
	result panel.TaskResult
}

func (m Model) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.timeout)
}

func (m Model) openCmd() tea.Cmd {
	p := m.panel
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		err := p.Open(ctx)
		return roomsLoadedMsg{outcome: panel.OutcomeApplied, err: err}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	p := m.panel
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		out, err := p.RefreshRooms(ctx)
		return roomsLoadedMsg{outcome: out, err: err}
	}
}

func (m Model) selectCmd(roomID string) tea.Cmd {
	p := m.panel
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		out, err := p.Select(ctx, roomID)
		return threadLoadedMsg{roomID: roomID, outcome: out, err: err}
	}
}

func (m Model) sendCmd() tea.Cmd {
	p := m.panel
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		msg, out, err := p.Send(ctx)
		return sentMsg{message: msg, outcome: out, err: err}
	}
}

func (m Model) searchCmd(query string) tea.Cmd {
	p := m.panel
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		out, err := p.Search(ctx, query)
		return searchDoneMsg{query: query, outcome: out, err: err}
	}
}

func (m Model) startDirectCmd(userID string) tea.Cmd {
	p := m.panel
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		out, err := p.StartDirect(ctx, userID)
		return directStartedMsg{userID: userID, outcome: out, err: err}
	}
}

// waitForTaskCmd blocks until the next background task result arrives.
func waitForTaskCmd(sink *TaskSink) tea.Cmd {
	if sink == nil {
		return nil
	}
	return func() tea.Msg {
		res, ok := <-sink.ch
		if !ok {
			return nil
		}
		return taskMsg{result: res}
	}
}

// statusTTL is how long a transient status line stays visible.
const statusTTL = 4 * time.Second

type clearStatusMsg struct {
	seq int
}

func clearStatusCmd(seq int) tea.Cmd {
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}
