package panel

// View is the panel's current screen. Exactly one is active at a time.
type View interface {
	isView()
	Name() string
}

// RoomListView shows the caller's conversations.
type RoomListView struct{}

// ThreadView shows the messages of one conversation.
type ThreadView struct {
	RoomID string
}

// NewChatView shows user search for starting a direct chat.
type NewChatView struct{}

func (RoomListView) isView() {}
func (ThreadView) isView()   {}
func (NewChatView) isView()  {}

func (RoomListView) Name() string { return "rooms" }
func (ThreadView) Name() string   { return "thread" }
func (NewChatView) Name() string  { return "new_chat" }

// ActiveRoom returns the room id of a thread view.
func ActiveRoom(v View) (string, bool) {
	tv, ok := v.(ThreadView)
	if !ok {
		return "", false
	}
	return tv.RoomID, true
}
