// Package panel implements the chat panel state: room list, message thread,
// composer and new-chat search, independent of how it is drawn.
//
// Network calls run outside the panel lock. Every view change bumps a
// selection key; thread loads, direct-chat starts and sends capture the key
// when dispatched and apply their result only if it still matches, so a slow
// response for a previously selected room can never overwrite the current one.
// Searches and room list fetches carry their own sequence numbers.
package panel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/teamchat/tchat/internal/client"
	"github.com/teamchat/tchat/internal/identity"
)

var (
	ErrClosed        = errors.New("chat panel is closed")
	ErrEmptyDraft    = errors.New("message cannot be empty")
	ErrNoActiveRoom  = errors.New("no conversation selected")
	ErrThreadLoading = errors.New("conversation has not loaded")
)

// DefaultTaskTimeout bounds background mark-read and list refresh calls.
const DefaultTaskTimeout = 10 * time.Second

// Backend is the subset of the chat REST API the panel consumes.
type Backend interface {
	ListRooms(ctx context.Context) ([]client.Room, error)
	ListMessages(ctx context.Context, roomID string) ([]client.Message, error)
	MarkRead(ctx context.Context, roomID string) error
	SendMessage(ctx context.Context, req *client.SendMessageRequest) (*client.Message, error)
	SearchUsers(ctx context.Context, query string) ([]client.UserSummary, error)
	StartDirect(ctx context.Context, userID string) (*client.Room, error)
}

// Outcome says whether a completed request changed panel state.
type Outcome int

const (
	// OutcomeApplied means the response was applied to the panel.
	OutcomeApplied Outcome = iota
	// OutcomeDiscarded means the response arrived for a selection that is no
	// longer current, or the panel was closed meanwhile.
	OutcomeDiscarded
)

func (o Outcome) String() string {
	if o == OutcomeApplied {
		return "applied"
	}
	return "discarded"
}

// Options configures a Panel.
type Options struct {
	Logger      *slog.Logger
	TaskTimeout time.Duration
	// OnTask is called (from the task goroutine) after each background task.
	OnTask func(TaskResult)
}

// RoomEntry is a room list row with its computed name and avatar.
type RoomEntry struct {
	Room   client.Room `json:"room"`
	Name   string      `json:"name"`
	Avatar Avatar      `json:"avatar"`
}

// Snapshot is a copy of the panel state for rendering.
type Snapshot struct {
	Open           bool
	View           View
	Rooms          []RoomEntry
	Messages       []client.Message
	ThreadRevision uint64
	Query          string
	Results        []client.UserSummary
	Draft          string
	LastError      error
}

// Panel holds the client-side chat state for one session.
type Panel struct {
	backend     Backend
	me          identity.Identity
	logger      *slog.Logger
	taskTimeout time.Duration
	onTask      func(TaskResult)

	mu             sync.Mutex
	open           bool
	taskCtx        context.Context
	cancelTasks    context.CancelFunc
	view           View
	key            uint64
	loadedKey      uint64
	rooms          []client.Room
	roomsSeq       uint64
	roomsApplied   uint64
	messages       []client.Message
	threadRevision uint64
	query          string
	searchSeq      uint64
	results        []client.UserSummary
	draft          string
	lastErr        error
	tasks          []TaskResult

	wg sync.WaitGroup
}

// New creates a closed panel for the given user.
func New(backend Backend, me identity.Identity, opts Options) *Panel {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	timeout := opts.TaskTimeout
	if timeout <= 0 {
		timeout = DefaultTaskTimeout
	}
	return &Panel{
		backend:     backend,
		me:          me,
		logger:      logger.With("component", "panel", "user_id", me.UserID),
		taskTimeout: timeout,
		onTask:      opts.OnTask,
		view:        RoomListView{},
	}
}

// Me returns the identity the panel was built with.
func (p *Panel) Me() identity.Identity {
	return p.me
}

// Open shows the room list and loads it.
func (p *Panel) Open(ctx context.Context) error {
	p.mu.Lock()
	if !p.open {
		p.open = true
		p.taskCtx, p.cancelTasks = context.WithCancel(context.Background())
	}
	p.setViewLocked(RoomListView{})
	p.mu.Unlock()

	p.logger.Debug("panel opened")
	_, err := p.RefreshRooms(ctx)
	return err
}

// Close discards all panel state and cancels background tasks.
func (p *Panel) Close() {
	p.mu.Lock()
	if p.cancelTasks != nil {
		p.cancelTasks()
	}
	p.open = false
	p.setViewLocked(RoomListView{})
	p.rooms = nil
	p.roomsApplied = p.roomsSeq
	p.messages = nil
	p.query = ""
	p.searchSeq++
	p.results = nil
	p.draft = ""
	p.lastErr = nil
	p.mu.Unlock()

	p.logger.Debug("panel closed")
}

// Wait blocks until in-flight background tasks have finished.
func (p *Panel) Wait() {
	p.wg.Wait()
}

// Snapshot returns a copy of the current state.
func (p *Panel) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries := make([]RoomEntry, 0, len(p.rooms))
	for _, r := range p.rooms {
		entries = append(entries, RoomEntry{
			Room:   r,
			Name:   DisplayName(r, p.me.UserID),
			Avatar: AvatarFor(r, p.me.UserID),
		})
	}
	return Snapshot{
		Open:           p.open,
		View:           p.view,
		Rooms:          entries,
		Messages:       append([]client.Message(nil), p.messages...),
		ThreadRevision: p.threadRevision,
		Query:          p.query,
		Results:        append([]client.UserSummary(nil), p.results...),
		Draft:          p.draft,
		LastError:      p.lastErr,
	}
}

// View returns the current view.
func (p *Panel) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view
}

// Room looks up a room in the loaded list.
func (p *Panel) Room(roomID string) (client.Room, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range p.rooms {
		if r.ID == roomID {
			return r, true
		}
	}
	return client.Room{}, false
}

// RefreshRooms re-fetches the room list. A response older than the last
// applied one is discarded.
func (p *Panel) RefreshRooms(ctx context.Context) (Outcome, error) {
	p.mu.Lock()
	if !p.open {
		p.mu.Unlock()
		return OutcomeDiscarded, ErrClosed
	}
	p.roomsSeq++
	seq := p.roomsSeq
	p.mu.Unlock()

	rooms, err := p.backend.ListRooms(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		if p.open {
			p.failLocked("list_rooms", "", err)
		}
		return OutcomeDiscarded, err
	}
	if !p.open || seq <= p.roomsApplied {
		p.logger.Debug("discarding stale room list", "seq", seq, "applied", p.roomsApplied)
		return OutcomeDiscarded, nil
	}
	p.rooms = uniqueRooms(rooms)
	p.roomsApplied = seq
	return OutcomeApplied, nil
}

// Select switches to the thread of a room, loads its messages and marks the
// room read in the background.
func (p *Panel) Select(ctx context.Context, roomID string) (Outcome, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return OutcomeDiscarded, ErrNoActiveRoom
	}

	p.mu.Lock()
	if !p.open {
		p.mu.Unlock()
		return OutcomeDiscarded, ErrClosed
	}
	key := p.setViewLocked(ThreadView{RoomID: roomID})
	p.mu.Unlock()

	p.logger.Debug("loading thread", "room_id", roomID, "key", key)
	msgs, err := p.backend.ListMessages(ctx, roomID)

	p.mu.Lock()
	if !p.open || p.key != key {
		p.mu.Unlock()
		p.logger.Debug("discarding stale thread response", "room_id", roomID, "key", key)
		return OutcomeDiscarded, nil
	}
	if err != nil {
		p.failLocked("list_messages", roomID, err)
		p.mu.Unlock()
		return OutcomeDiscarded, err
	}
	p.messages = append([]client.Message(nil), msgs...)
	p.threadRevision++
	p.loadedKey = key
	p.mu.Unlock()

	p.background(TaskMarkRead, roomID, func(ctx context.Context) error {
		return p.backend.MarkRead(ctx, roomID)
	})
	return OutcomeApplied, nil
}

// Back returns to the room list from a thread or the new-chat view.
func (p *Panel) Back() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setViewLocked(RoomListView{})
}

// EnterNewChat shows user search. Any selected thread is hidden and leaving
// new-chat goes back to the room list.
func (p *Panel) EnterNewChat() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setViewLocked(NewChatView{})
}

// Search runs a user search. An empty query clears the results without a request.
func (p *Panel) Search(ctx context.Context, query string) (Outcome, error) {
	p.mu.Lock()
	if !p.open {
		p.mu.Unlock()
		return OutcomeDiscarded, ErrClosed
	}
	p.query = query
	p.searchSeq++
	seq := p.searchSeq
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		p.results = nil
		p.mu.Unlock()
		return OutcomeApplied, nil
	}
	p.mu.Unlock()

	users, err := p.backend.SearchUsers(ctx, trimmed)

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open || seq != p.searchSeq {
		p.logger.Debug("discarding stale search response", "query", trimmed)
		return OutcomeDiscarded, nil
	}
	if err != nil {
		p.failLocked("search_users", "", err)
		return OutcomeDiscarded, err
	}
	p.results = users
	return OutcomeApplied, nil
}

// StartDirect creates or reuses a direct room with the user, switches to its
// thread and refreshes the room list in the background.
func (p *Panel) StartDirect(ctx context.Context, userID string) (Outcome, error) {
	p.mu.Lock()
	if !p.open {
		p.mu.Unlock()
		return OutcomeDiscarded, ErrClosed
	}
	key := p.key
	p.mu.Unlock()

	room, err := p.backend.StartDirect(ctx, userID)

	p.mu.Lock()
	if !p.open || p.key != key {
		p.mu.Unlock()
		p.logger.Debug("discarding stale direct chat response", "user_id", userID)
		return OutcomeDiscarded, nil
	}
	if err != nil {
		p.failLocked("start_direct", "", err)
		p.mu.Unlock()
		return OutcomeDiscarded, err
	}
	p.addRoomLocked(*room)
	p.mu.Unlock()

	p.background(TaskRefreshRooms, room.ID, p.refreshTask)
	return p.Select(ctx, room.ID)
}

// SetDraft replaces the composer text.
func (p *Panel) SetDraft(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draft = text
}

// Send posts the trimmed draft to the active room. On success the returned
// message is appended once, the draft is cleared and the room list refreshed
// in the background. On failure the draft is kept. Until the active thread
// has loaded, Send returns ErrThreadLoading without a request.
func (p *Panel) Send(ctx context.Context) (*client.Message, Outcome, error) {
	p.mu.Lock()
	if !p.open {
		p.mu.Unlock()
		return nil, OutcomeDiscarded, ErrClosed
	}
	roomID, ok := ActiveRoom(p.view)
	if !ok {
		p.mu.Unlock()
		return nil, OutcomeDiscarded, ErrNoActiveRoom
	}
	submitted := p.draft
	content := strings.TrimSpace(submitted)
	if content == "" {
		p.mu.Unlock()
		return nil, OutcomeDiscarded, ErrEmptyDraft
	}
	// The thread load would replace anything appended before it lands.
	if p.loadedKey != p.key {
		p.mu.Unlock()
		return nil, OutcomeDiscarded, ErrThreadLoading
	}
	key := p.key
	p.mu.Unlock()

	msg, err := p.backend.SendMessage(ctx, &client.SendMessageRequest{Content: content, RoomID: roomID})

	p.mu.Lock()
	if err != nil {
		if p.open {
			p.failLocked("send_message", roomID, err)
		}
		p.mu.Unlock()
		return nil, OutcomeDiscarded, err
	}
	outcome := OutcomeDiscarded
	if p.open {
		if p.draft == submitted {
			p.draft = ""
		}
		p.setLastMessageLocked(roomID, *msg)
		if p.key == key && !p.hasMessageLocked(msg.ID) {
			p.messages = append(p.messages, *msg)
			p.threadRevision++
			outcome = OutcomeApplied
		}
	}
	p.mu.Unlock()

	p.background(TaskRefreshRooms, roomID, p.refreshTask)
	return msg, outcome, nil
}

// LastError returns the most recent request failure, if any.
func (p *Panel) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// ClearError forgets the last request failure.
func (p *Panel) ClearError() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastErr = nil
}

func (p *Panel) refreshTask(ctx context.Context) error {
	_, err := p.RefreshRooms(ctx)
	return err
}

// setViewLocked switches view and invalidates in-flight selection-bound requests.
func (p *Panel) setViewLocked(v View) uint64 {
	prev := p.view
	p.view = v
	p.key++
	if _, ok := v.(ThreadView); ok || prev != v {
		p.messages = nil
		p.threadRevision++
	}
	if _, ok := v.(NewChatView); ok {
		p.query = ""
		p.results = nil
		p.searchSeq++
	}
	return p.key
}

func (p *Panel) failLocked(op, roomID string, err error) {
	p.lastErr = err
	p.logger.Warn("chat request failed",
		"op", op,
		"room_id", roomID,
		"kind", client.Classify(err),
		"error", err,
	)
}

func (p *Panel) hasMessageLocked(id string) bool {
	if id == "" {
		return false
	}
	for _, m := range p.messages {
		if m.ID == id {
			return true
		}
	}
	return false
}

func (p *Panel) setLastMessageLocked(roomID string, msg client.Message) {
	for i := range p.rooms {
		if p.rooms[i].ID == roomID {
			m := msg
			p.rooms[i].LastMessage = &m
			return
		}
	}
}

// addRoomLocked puts a room not yet in the list at the top.
func (p *Panel) addRoomLocked(room client.Room) {
	for _, r := range p.rooms {
		if r.ID == room.ID {
			return
		}
	}
	p.rooms = append([]client.Room{room}, p.rooms...)
}

// uniqueRooms keeps the first occurrence of each room id, in backend order.
func uniqueRooms(rooms []client.Room) []client.Room {
	seen := make(map[string]bool, len(rooms))
	out := make([]client.Room, 0, len(rooms))
	for _, r := range rooms {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out
}
