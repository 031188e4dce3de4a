// Package tui draws a chat panel in the terminal with bubbletea.
//
// The model owns no chat state of its own: it renders panel snapshots and
// runs every panel operation as a tea.Cmd, so network calls never block the
// event loop.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/teamchat/tchat/internal/client"
	"github.com/teamchat/tchat/internal/panel"
)

// DefaultTimeout bounds each request started from the UI.
const DefaultTimeout = 10 * time.Second

// Layout constants
const (
	headerHeight = 2
	inputHeight  = 3
	statusHeight = 1
	minWidth     = 20
)

// Options configures the model.
type Options struct {
	Timeout time.Duration
	Tasks   *TaskSink
}

// Model is the bubbletea model for the chat panel.
type Model struct {
	panel   *panel.Panel
	tasks   *TaskSink
	timeout time.Duration

	composer textinput.Model
	search   textinput.Model
	thread   viewport.Model

	roomCursor   int
	resultCursor int
	revision     uint64
	width        int
	height       int

	loading   bool
	sending   bool
	status    string
	statusErr bool
	statusSeq int
}

// New creates a model for an unopened panel. Init opens it.
func New(p *panel.Panel, opts Options) Model {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	composer := textinput.New()
	composer.Placeholder = "Type a message..."
	composer.Prompt = "› "
	composer.CharLimit = 4000

	search := textinput.New()
	search.Placeholder = "Search people..."
	search.Prompt = "🔍 "
	search.CharLimit = 100

	m := Model{
		panel:    p,
		tasks:    opts.Tasks,
		timeout:  timeout,
		composer: composer,
		search:   search,
		thread:   viewport.New(80, 20),
		width:    80,
		height:   24,
		loading:  true,
	}
	m.resize()
	return m
}

// Init opens the panel and starts listening for background task results.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.openCmd(), waitForTaskCmd(m.tasks))
}

// Update handles messages and updates the model. The thread viewport is
// resynced after every message, so a view switch or failed load never leaves
// the previous conversation on screen.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.syncThread()
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.revision = 0
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.panel.View().(type) {
		case panel.ThreadView:
			return m.updateThread(msg)
		case panel.NewChatView:
			return m.updateNewChat(msg)
		default:
			return m.updateRoomList(msg)
		}

	case roomsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			return m, m.setError("loading conversations", msg.err)
		}
		m.clearError()
		m.clampCursors()
		return m, nil

	case threadLoadedMsg:
		m.loading = false
		if msg.err != nil {
			return m, m.setError("loading messages", msg.err)
		}
		if msg.outcome == panel.OutcomeDiscarded {
			return m, nil
		}
		m.clearError()
		m.composer.SetValue(m.panel.Snapshot().Draft)
		return m, m.composer.Focus()

	case sentMsg:
		m.sending = false
		if msg.err != nil {
			switch {
			case errors.Is(msg.err, panel.ErrEmptyDraft):
				return m, nil
			case errors.Is(msg.err, panel.ErrThreadLoading):
				return m, m.setStatus("Messages are still loading, try again", false)
			}
			return m, m.setError("sending message", msg.err)
		}
		m.clearError()
		m.composer.SetValue(m.panel.Snapshot().Draft)
		m.composer.CursorEnd()
		return m, nil

	case searchDoneMsg:
		if msg.err != nil {
			return m, m.setError("searching people", msg.err)
		}
		m.clampCursors()
		return m, nil

	case directStartedMsg:
		m.loading = false
		if msg.err != nil {
			return m, m.setError("starting chat", msg.err)
		}
		if msg.outcome == panel.OutcomeDiscarded {
			return m, nil
		}
		m.clearError()
		m.search.Blur()
		m.composer.SetValue(m.panel.Snapshot().Draft)
		return m, m.composer.Focus()

	case taskMsg:
		var cmd tea.Cmd
		if !msg.result.OK() {
			cmd = m.setStatus(fmt.Sprintf("%s failed: %s", strings.ReplaceAll(string(msg.result.Kind), "_", " "), describeError(msg.result.Err)), true)
		}
		m.clampCursors()
		return m, tea.Batch(cmd, waitForTaskCmd(m.tasks))

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
			m.statusErr = false
		}
		return m, nil
	}

	return m, nil
}

func (m Model) updateRoomList(msg tea.KeyMsg) (Model, tea.Cmd) {
	rooms := m.panel.Snapshot().Rooms

	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.roomCursor > 0 {
			m.roomCursor--
		}
	case "down", "j":
		if m.roomCursor < len(rooms)-1 {
			m.roomCursor++
		}
	case "r":
		return m, m.refreshCmd()
	case "n":
		m.panel.EnterNewChat()
		m.search.Reset()
		m.resultCursor = 0
		return m, m.search.Focus()
	case "enter":
		if len(rooms) == 0 {
			return m, nil
		}
		m.loading = true
		return m, m.selectCmd(rooms[m.roomCursor].Room.ID)
	}
	return m, nil
}

func (m Model) updateThread(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.panel.Back()
		m.composer.Blur()
		return m, nil
	case "enter":
		if m.sending || m.loading || strings.TrimSpace(m.composer.Value()) == "" {
			return m, nil
		}
		m.panel.SetDraft(m.composer.Value())
		m.sending = true
		return m, m.sendCmd()
	case "pgup", "pgdown", "up", "down":
		var cmd tea.Cmd
		m.thread, cmd = m.thread.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	m.panel.SetDraft(m.composer.Value())
	return m, cmd
}

func (m Model) updateNewChat(msg tea.KeyMsg) (Model, tea.Cmd) {
	results := m.panel.Snapshot().Results

	switch msg.String() {
	case "esc":
		m.panel.Back()
		m.search.Blur()
		m.search.Reset()
		return m, nil
	case "up":
		if m.resultCursor > 0 {
			m.resultCursor--
		}
		return m, nil
	case "down":
		if m.resultCursor < len(results)-1 {
			m.resultCursor++
		}
		return m, nil
	case "enter":
		if len(results) == 0 {
			return m, nil
		}
		m.loading = true
		return m, m.startDirectCmd(results[m.resultCursor].ID)
	}

	prev := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == prev {
		return m, cmd
	}
	m.resultCursor = 0
	return m, tea.Batch(cmd, m.searchCmd(m.search.Value()))
}

// syncThread refreshes the viewport when the thread changed and keeps the
// newest message in view.
func (m *Model) syncThread() {
	snap := m.panel.Snapshot()
	if snap.ThreadRevision == m.revision {
		return
	}
	m.revision = snap.ThreadRevision
	m.thread.SetContent(renderThread(snap.Messages, m.panel.Me().UserID, m.thread.Width))
	m.thread.GotoBottom()
}

func (m *Model) resize() {
	w := m.width
	if w < minWidth {
		w = minWidth
	}
	h := m.height - headerHeight - inputHeight - statusHeight
	if h < 1 {
		h = 1
	}
	m.thread.Width = w
	m.thread.Height = h
	m.composer.Width = w - 6
	m.search.Width = w - 6
}

func (m *Model) clampCursors() {
	snap := m.panel.Snapshot()
	m.roomCursor = clamp(m.roomCursor, len(snap.Rooms))
	m.resultCursor = clamp(m.resultCursor, len(snap.Results))
}

func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

func (m *Model) setError(action string, err error) tea.Cmd {
	return m.setStatus(fmt.Sprintf("Error %s: %s", action, describeError(err)), true)
}

// clearError drops a shown request failure once a later request succeeds.
func (m *Model) clearError() {
	m.panel.ClearError()
	if m.statusErr {
		m.status = ""
		m.statusErr = false
	}
}

func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.statusSeq++
	m.status = text
	m.statusErr = isErr
	return clearStatusCmd(m.statusSeq)
}

// describeError turns a request failure into a short user-facing reason.
func describeError(err error) string {
	switch client.Classify(err) {
	case client.KindTimeout:
		return "request timed out"
	case client.KindNetwork:
		return "can't reach the chat server"
	case client.KindUnauthorized:
		return "not authorized (check your token)"
	case client.KindNotFound:
		return "not found"
	case client.KindValidation:
		return "rejected by the server"
	case client.KindServer:
		return "server error"
	case client.KindDecode:
		return "unexpected server response"
	case client.KindCanceled:
		return "canceled"
	}
	if errors.Is(err, panel.ErrClosed) {
		return "panel closed"
	}
	return err.Error()
}
