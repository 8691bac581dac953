package domain

import "time"

type (
	RoomID   string
	RoomName string
)

// Room is an ephemeral group. A stored room always has at least one user;
// the store deletes it in the same step that drains membership to zero.
type Room struct {
	ID        RoomID
	Name      RoomName
	OwnerID   UserID
	Users     map[UserID]*User
	CreatedAt time.Time
}

const MaxRoomNameLen = 36

func (r *Room) UserCount() int { return len(r.Users) }
