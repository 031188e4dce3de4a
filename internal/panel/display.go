package panel

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/teamchat/tchat/internal/client"
)

// Placeholder labels for rooms without a usable name.
const (
	GroupPlaceholder   = "Group Chat"
	UnknownPlaceholder = "Unknown user"
)

// AvatarKind says how a room's avatar is drawn.
type AvatarKind int

const (
	AvatarInitial AvatarKind = iota
	AvatarGroup
	AvatarImage
)

// Avatar is the computed avatar for a room list entry.
type Avatar struct {
	Kind    AvatarKind `json:"kind"`
	URL     string     `json:"url,omitempty"`
	Initial string     `json:"initial,omitempty"`
}

// Glyph is the text stand-in for the avatar in a terminal.
func (a Avatar) Glyph() string {
	switch a.Kind {
	case AvatarGroup:
		return "[#]"
	case AvatarImage:
		return "[" + a.Initial + "]"
	}
	return "(" + a.Initial + ")"
}

// FullName joins a user's name parts.
func FullName(u client.UserSummary) string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

// OtherMember returns the first member that is not the current user.
func OtherMember(room client.Room, me string) (client.UserSummary, bool) {
	for _, m := range room.Members {
		if m.User.ID != me {
			return m.User, true
		}
	}
	return client.UserSummary{}, false
}

// DisplayName is the label shown for a room in the list and thread header.
func DisplayName(room client.Room, me string) string {
	name := ""
	if room.Name != nil {
		name = strings.TrimSpace(*room.Name)
	}
	if room.IsGroup {
		if name != "" {
			return name
		}
		return GroupPlaceholder
	}

	if other, ok := OtherMember(room, me); ok {
		if full := FullName(other); full != "" {
			return full
		}
	}
	if name != "" {
		return name
	}
	return UnknownPlaceholder
}

// AvatarFor computes a room's avatar: group icon, the other member's image,
// or the initial of the display name.
func AvatarFor(room client.Room, me string) Avatar {
	if room.IsGroup {
		return Avatar{Kind: AvatarGroup}
	}
	if other, ok := OtherMember(room, me); ok && other.Avatar != nil && strings.TrimSpace(*other.Avatar) != "" {
		return Avatar{Kind: AvatarImage, URL: strings.TrimSpace(*other.Avatar), Initial: initial(DisplayName(room, me))}
	}
	return Avatar{Kind: AvatarInitial, Initial: initial(DisplayName(room, me))}
}

func initial(name string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name))
	if r == utf8.RuneError {
		return "?"
	}
	return string(unicode.ToUpper(r))
}

// IsOwn reports whether the current user sent the message.
func IsOwn(msg client.Message, me string) bool {
	return me != "" && msg.SenderID == me
}

// SenderLabel is the label drawn above a message; own messages have none.
func SenderLabel(msg client.Message, me string) string {
	if IsOwn(msg, me) {
		return ""
	}
	if name := FullName(msg.Sender); name != "" {
		return name
	}
	return msg.SenderID
}
