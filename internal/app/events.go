package app

import (
	"songroom/internal/core"
	"songroom/internal/domain"
)

// Wire event names. Inbound request kinds live in the signal adapter; these
// are the outbound replies and broadcasts.
const (
	EvLobbyJoined          = "lobbyJoined"
	EvJoinCreatedRoom      = "joinCreatedRoom"
	EvRoomCreated          = "roomCreated"
	EvUserJoinRoom         = "userJoinRoom"
	EvUserLeaveRoom        = "userLeaveRoom"
	EvRoomUserCountChanged = "roomUserCountChanged"
	EvRoomDeleted          = "roomDeleted"
	EvRoomList             = "roomList"
	EvError                = "error"
)

type LobbyJoinedEvent struct {
	Type string `json:"type"`
}

type JoinCreatedRoomEvent struct {
	Type string        `json:"type"`
	Room domain.RoomID `json:"room"`
}

type RoomCreatedEvent struct {
	Type string        `json:"type"`
	Room core.RoomInfo `json:"room"`
}

type UserJoinRoomEvent struct {
	Type string      `json:"type"`
	User domain.User `json:"user"`
}

type UserLeaveRoomEvent struct {
	Type string      `json:"type"`
	User domain.User `json:"user"`
}

type RoomUserCountChangedEvent struct {
	Type  string        `json:"type"`
	Room  domain.RoomID `json:"room"`
	Count int           `json:"count"`
}

type RoomDeletedEvent struct {
	Type string        `json:"type"`
	Room domain.RoomID `json:"room"`
}

type RoomListEvent struct {
	Type  string          `json:"type"`
	Rooms []core.RoomInfo `json:"rooms"`
}

type ErrorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
