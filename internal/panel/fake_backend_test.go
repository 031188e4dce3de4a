package panel

import (
	"context"
	"fmt"
	"sync"

	"github.com/teamchat/tchat/internal/client"
)

// fakeBackend is a scripted in-memory chat backend.
type fakeBackend struct {
	mu sync.Mutex

	rooms       []client.Room
	roomsErr    error
	messages    map[string][]client.Message
	messagesErr error
	users       map[string][]client.UserSummary
	direct      map[string]client.Room
	sendErr     error
	markReadErr error

	// gates block ListMessages, SearchUsers and SendMessage for a key until closed.
	gates   map[string]chan struct{}
	started chan string

	calls    map[string]int
	sent     []client.SendMessageRequest
	markRead []string
	queries  []string
	nextID   int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		messages: map[string][]client.Message{},
		users:    map[string][]client.UserSummary{},
		direct:   map[string]client.Room{},
		gates:    map[string]chan struct{}{},
		started:  make(chan string, 32),
		calls:    map[string]int{},
	}
}

// gate makes calls for key block until the returned channel is closed.
// Keys are room ids, "q:<query>" for searches and "send:<room>" for sends.
func (f *fakeBackend) gate(key string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[key] = ch
	return ch
}

func (f *fakeBackend) wait(ctx context.Context, key string) error {
	f.mu.Lock()
	ch := f.gates[key]
	f.mu.Unlock()
	f.started <- key
	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeBackend) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) ListRooms(ctx context.Context) ([]client.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["ListRooms"]++
	if f.roomsErr != nil {
		return nil, f.roomsErr
	}
	return append([]client.Room(nil), f.rooms...), nil
}

func (f *fakeBackend) ListMessages(ctx context.Context, roomID string) ([]client.Message, error) {
	f.mu.Lock()
	f.calls["ListMessages"]++
	f.mu.Unlock()

	if err := f.wait(ctx, roomID); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.messagesErr != nil {
		return nil, f.messagesErr
	}
	return append([]client.Message(nil), f.messages[roomID]...), nil
}

func (f *fakeBackend) MarkRead(ctx context.Context, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["MarkRead"]++
	f.markRead = append(f.markRead, roomID)
	return f.markReadErr
}

func (f *fakeBackend) SendMessage(ctx context.Context, req *client.SendMessageRequest) (*client.Message, error) {
	if err := f.wait(ctx, "send:"+req.RoomID); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["SendMessage"]++
	f.sent = append(f.sent, *req)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.nextID++
	msg := client.Message{
		ID:       fmt.Sprintf("sent-%d", f.nextID),
		Content:  req.Content,
		SenderID: "u1",
		Sender:   client.UserSummary{ID: "u1", FirstName: "Sam", LastName: "Park"},
	}
	f.messages[req.RoomID] = append(f.messages[req.RoomID], msg)
	for i := range f.rooms {
		if f.rooms[i].ID == req.RoomID {
			last := msg
			f.rooms[i].LastMessage = &last
		}
	}
	return &msg, nil
}

func (f *fakeBackend) SearchUsers(ctx context.Context, query string) ([]client.UserSummary, error) {
	f.mu.Lock()
	f.calls["SearchUsers"]++
	f.queries = append(f.queries, query)
	f.mu.Unlock()

	if err := f.wait(ctx, "q:"+query); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[query], nil
}

func (f *fakeBackend) StartDirect(ctx context.Context, userID string) (*client.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["StartDirect"]++
	room, ok := f.direct[userID]
	if !ok {
		return nil, &client.Error{StatusCode: 404, Body: `{"error":"user not found"}`}
	}
	for _, r := range f.rooms {
		if r.ID == room.ID {
			return &room, nil
		}
	}
	f.rooms = append([]client.Room{room}, f.rooms...)
	return &room, nil
}
