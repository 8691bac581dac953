package app

import (
	"github.com/rs/zerolog/log"

	"songroom/internal/core"
	"songroom/internal/domain"
)

// Coordinator drives the per-connection state machine
// Disconnected → Connected → InLobby → InRoom → (InLobby | Disconnected).
// Requests from one connection arrive strictly sequentially; requests from
// different connections run concurrently, so all shared state lives behind
// the core stores' own locks.
type Coordinator struct {
	Registry *core.Registry
	Lobby    *core.Lobby
	Rooms    *core.RoomStore
	Casts    Broadcaster
}

func NewCoordinator(reg *core.Registry, lobby *core.Lobby, rooms *core.RoomStore, casts Broadcaster) *Coordinator {
	return &Coordinator{Registry: reg, Lobby: lobby, Rooms: rooms, Casts: casts}
}

// JoinLobby binds the connection to its user and places the user in the
// waiting pool. Only the caller is notified.
func (c *Coordinator) JoinLobby(cid core.ConnectionID, user *domain.User) error {
	if err := c.Registry.Register(cid, user); err != nil {
		return err
	}
	c.Lobby.Join(user)
	c.Casts.ToConn(cid, LobbyJoinedEvent{Type: EvLobbyJoined})
	log.Info().Str("module", "app.coordinator").Str("cid", string(cid)).Str("user", string(user.ID)).Msg("joined lobby")
	return nil
}

// CreateRoom makes a fresh room with the caller as owner and first member.
// The creator's connection is deliberately not subscribed to the room
// channel here; it receives the new id and follows up with an explicit
// JoinRoom, so "room created" and the creator's join stay two separately
// observable events.
func (c *Coordinator) CreateRoom(cid core.ConnectionID, name domain.RoomName) error {
	user, err := c.Registry.Lookup(cid)
	if err != nil {
		return err
	}
	info := c.Rooms.Create(user, name)
	// The owner is a room member from this instant, so it must not linger in
	// the waiting pool (a user is in at most one of lobby / room).
	c.Lobby.Leave(user.ID)
	c.Casts.ToAll(RoomCreatedEvent{Type: EvRoomCreated, Room: info})
	c.Casts.ToConn(cid, JoinCreatedRoomEvent{Type: EvJoinCreatedRoom, Room: info.ID})
	return nil
}

// JoinRoom adds the caller to a room's membership and audience. The channel
// subscription happens before the join broadcast so the joiner observes its
// own join. Re-joining a room is a no-op success; the count event is still
// emitted.
func (c *Coordinator) JoinRoom(cid core.ConnectionID, roomID domain.RoomID) error {
	user, err := c.Registry.Lookup(cid)
	if err != nil {
		return err
	}
	info, added, err := c.Rooms.Join(roomID, user)
	if err != nil {
		return err
	}
	c.Lobby.Leave(user.ID)
	// A room creator is a member before its first JoinRoom, so "new to the
	// audience" counts as a join too; a repeated identical join announces
	// nothing beyond the count update.
	newAudience := c.Casts.Subscribe(cid, roomID)
	if added || newAudience {
		c.Casts.ToRoom(roomID, UserJoinRoomEvent{Type: EvUserJoinRoom, User: *user})
	}
	c.Casts.ToAll(RoomUserCountChangedEvent{Type: EvRoomUserCountChanged, Room: roomID, Count: info.UserCount})
	return nil
}

// LeaveRoom removes the caller from a room. The leaver stops receiving the
// room channel first, then the remaining audience learns about the
// departure; an emptied room is deleted and announced globally instead of a
// count update.
func (c *Coordinator) LeaveRoom(cid core.ConnectionID, roomID domain.RoomID) error {
	user, err := c.Registry.Lookup(cid)
	if err != nil {
		return err
	}
	return c.leaveRoom(cid, roomID, user)
}

func (c *Coordinator) leaveRoom(cid core.ConnectionID, roomID domain.RoomID, user *domain.User) error {
	shouldDelete, err := c.Rooms.Leave(roomID, user.ID)
	if err != nil {
		return err
	}
	c.Casts.Unsubscribe(cid, roomID)
	c.Casts.ToRoom(roomID, UserLeaveRoomEvent{Type: EvUserLeaveRoom, User: *user})
	if shouldDelete {
		c.Rooms.Delete(roomID)
		c.Casts.ToAll(RoomDeletedEvent{Type: EvRoomDeleted, Room: roomID})
		return nil
	}
	if info, err := c.Rooms.Get(roomID); err == nil {
		c.Casts.ToAll(RoomUserCountChangedEvent{Type: EvRoomUserCountChanged, Room: roomID, Count: info.UserCount})
	}
	return nil
}

// Disconnect runs the full cleanup for a dropped connection. Every
// "nothing to clean up" case is normal here; errors are logged and never
// stop the remaining steps, and nothing is sent to the dead connection.
func (c *Coordinator) Disconnect(cid core.ConnectionID) {
	user, err := c.Registry.Unregister(cid)
	if err != nil {
		log.Debug().Str("module", "app.coordinator").Str("cid", string(cid)).Msg("disconnect before lobby join")
		return
	}
	if roomID, ok := c.Rooms.RoomOf(user.ID); ok {
		// Same leave logic as the explicit request, invoked as a plain
		// function call rather than a synthetic transport event.
		if err := c.leaveRoom(cid, roomID, user); err != nil {
			log.Warn().Err(err).Str("module", "app.coordinator").Str("cid", string(cid)).Str("room", string(roomID)).Msg("disconnect room cleanup")
		}
	}
	c.Lobby.Leave(user.ID)
	log.Info().Str("module", "app.coordinator").Str("cid", string(cid)).Str("user", string(user.ID)).Msg("disconnected")
}

// ListRooms returns the current room summaries for lobby UIs.
func (c *Coordinator) ListRooms() []core.RoomInfo {
	return c.Rooms.List()
}
