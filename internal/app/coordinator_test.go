package app

import (
	"errors"
	"sync"
	"testing"

	"songroom/internal/core"
	"songroom/internal/domain"
)

// recordingCasts captures every publish so tests can assert on audiences and
// ordering without a transport.
type recordingCasts struct {
	mu     sync.Mutex
	events []sentEvent
	subs   map[core.ConnectionID]map[domain.RoomID]bool
}

type sentEvent struct {
	audience string // "conn", "room" or "all"
	target   string
	event    any
}

func newRecordingCasts() *recordingCasts {
	return &recordingCasts{subs: make(map[core.ConnectionID]map[domain.RoomID]bool)}
}

func (r *recordingCasts) record(audience, target string, event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sentEvent{audience: audience, target: target, event: event})
}

func (r *recordingCasts) ToConn(cid core.ConnectionID, event any) { r.record("conn", string(cid), event) }
func (r *recordingCasts) ToRoom(id domain.RoomID, event any)      { r.record("room", string(id), event) }
func (r *recordingCasts) ToAll(event any)                         { r.record("all", "", event) }

func (r *recordingCasts) Subscribe(cid core.ConnectionID, id domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.subs[cid] == nil {
		r.subs[cid] = make(map[domain.RoomID]bool)
	}
	if r.subs[cid][id] {
		return false
	}
	r.subs[cid][id] = true
	return true
}

func (r *recordingCasts) Unsubscribe(cid core.ConnectionID, id domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs[cid], id)
}

func (r *recordingCasts) subscribed(cid core.ConnectionID, id domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subs[cid][id]
}

func (r *recordingCasts) all() []sentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sentEvent, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recordingCasts) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func (r *recordingCasts) countType(eventType string) int {
	n := 0
	for _, e := range r.all() {
		if typeOf(e.event) == eventType {
			n++
		}
	}
	return n
}

func typeOf(event any) string {
	switch ev := event.(type) {
	case LobbyJoinedEvent:
		return ev.Type
	case JoinCreatedRoomEvent:
		return ev.Type
	case RoomCreatedEvent:
		return ev.Type
	case UserJoinRoomEvent:
		return ev.Type
	case UserLeaveRoomEvent:
		return ev.Type
	case RoomUserCountChangedEvent:
		return ev.Type
	case RoomDeletedEvent:
		return ev.Type
	default:
		return ""
	}
}

func newTestCoordinator() (*Coordinator, *recordingCasts) {
	casts := newRecordingCasts()
	return NewCoordinator(core.NewRegistry(), core.NewLobby(), core.NewRoomStore(), casts), casts
}

func mustUser(t *testing.T, id, name string) *domain.User {
	t.Helper()
	u, err := domain.NewUser(id, name)
	if err != nil {
		t.Fatalf("NewUser(%s): %v", id, err)
	}
	return u
}

func createdRoomID(t *testing.T, casts *recordingCasts) domain.RoomID {
	t.Helper()
	for _, e := range casts.all() {
		if ev, ok := e.event.(JoinCreatedRoomEvent); ok {
			return ev.Room
		}
	}
	t.Fatal("no joinCreatedRoom reply recorded")
	return ""
}

func TestJoinLobbyRepliesToCallerOnly(t *testing.T) {
	c, casts := newTestCoordinator()
	if err := c.JoinLobby("conn-a", mustUser(t, "u1", "alice")); err != nil {
		t.Fatalf("JoinLobby: %v", err)
	}
	events := casts.all()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1: %+v", len(events), events)
	}
	if events[0].audience != "conn" || events[0].target != "conn-a" {
		t.Errorf("lobbyJoined went to %s/%s, want conn/conn-a", events[0].audience, events[0].target)
	}
	if !c.Lobby.Contains("u1") {
		t.Error("user missing from lobby after JoinLobby")
	}
}

func TestJoinLobbyTwiceFails(t *testing.T) {
	c, _ := newTestCoordinator()
	if err := c.JoinLobby("conn-a", mustUser(t, "u1", "alice")); err != nil {
		t.Fatalf("JoinLobby: %v", err)
	}
	err := c.JoinLobby("conn-a", mustUser(t, "u1", "alice"))
	if !errors.Is(err, domain.ErrAlreadyRegistered) {
		t.Fatalf("second JoinLobby: got %v, want ErrAlreadyRegistered", err)
	}
}

func TestCreateRoomRequiresRegistration(t *testing.T) {
	c, _ := newTestCoordinator()
	err := c.CreateRoom("ghost", "r")
	if !errors.Is(err, domain.ErrNotRegistered) {
		t.Fatalf("CreateRoom unregistered: got %v, want ErrNotRegistered", err)
	}
}

func TestCreateRoomAnnouncesGloballyAndRepliesWithID(t *testing.T) {
	c, casts := newTestCoordinator()
	if err := c.JoinLobby("conn-a", mustUser(t, "u1", "alice")); err != nil {
		t.Fatalf("JoinLobby: %v", err)
	}
	casts.reset()
	if err := c.CreateRoom("conn-a", "karaoke night"); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	var sawGlobal, sawReply bool
	for _, e := range casts.all() {
		switch ev := e.event.(type) {
		case RoomCreatedEvent:
			sawGlobal = e.audience == "all"
			if ev.Room.UserCount != 1 {
				t.Errorf("roomCreated user count = %d, want 1", ev.Room.UserCount)
			}
		case JoinCreatedRoomEvent:
			sawReply = e.audience == "conn" && e.target == "conn-a"
		}
	}
	if !sawGlobal || !sawReply {
		t.Fatalf("missing broadcasts: global=%v reply=%v", sawGlobal, sawReply)
	}

	roomID := createdRoomID(t, casts)
	// Creation alone must not subscribe the creator; joining is a second,
	// separately observable step.
	if casts.subscribed("conn-a", roomID) {
		t.Error("creator subscribed to room channel without JoinRoom")
	}
	// The owner is a member already, so it cannot also sit in the lobby.
	if c.Lobby.Contains("u1") {
		t.Error("owner still in lobby after creating a room")
	}
}

func TestJoinRoomSubscribesBeforeBroadcast(t *testing.T) {
	c, casts := newTestCoordinator()
	if err := c.JoinLobby("conn-a", mustUser(t, "u1", "alice")); err != nil {
		t.Fatalf("JoinLobby: %v", err)
	}
	if err := c.CreateRoom("conn-a", "r"); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	roomID := createdRoomID(t, casts)
	casts.reset()

	if err := c.JoinRoom("conn-a", roomID); err != nil {
		t.Fatalf("JoinRoom: %v", err)
	}
	if !casts.subscribed("conn-a", roomID) {
		t.Fatal("joiner not subscribed to room channel")
	}
	// The owner was already a member (Create inserted it) but is new to the
	// room audience, so its join is still announced.
	if got := casts.countType(EvUserJoinRoom); got != 1 {
		t.Errorf("userJoinRoom events = %d, want 1 for owner's first join", got)
	}
	if got := casts.countType(EvRoomUserCountChanged); got != 1 {
		t.Errorf("count events = %d, want 1", got)
	}
}

func TestJoinRoomUnknownRoom(t *testing.T) {
	c, _ := newTestCoordinator()
	if err := c.JoinLobby("conn-a", mustUser(t, "u1", "alice")); err != nil {
		t.Fatalf("JoinLobby: %v", err)
	}
	if err := c.JoinRoom("conn-a", "nope"); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("JoinRoom unknown: got %v, want ErrRoomNotFound", err)
	}
}

func TestJoinRoomIdempotentNoDuplicateBroadcast(t *testing.T) {
	c, casts := newTestCoordinator()
	if err := c.JoinLobby("conn-a", mustUser(t, "u1", "alice")); err != nil {
		t.Fatalf("JoinLobby: %v", err)
	}
	if err := c.JoinLobby("conn-b", mustUser(t, "u2", "bob")); err != nil {
		t.Fatalf("JoinLobby: %v", err)
	}
	if err := c.CreateRoom("conn-a", "r"); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	roomID := createdRoomID(t, casts)

	casts.reset()
	if err := c.JoinRoom("conn-b", roomID); err != nil {
		t.Fatalf("JoinRoom: %v", err)
	}
	if got := casts.countType(EvUserJoinRoom); got != 1 {
		t.Fatalf("first join userJoinRoom events = %d, want 1", got)
	}

	casts.reset()
	if err := c.JoinRoom("conn-b", roomID); err != nil {
		t.Fatalf("second JoinRoom: %v", err)
	}
	if got := casts.countType(EvUserJoinRoom); got != 0 {
		t.Errorf("second join userJoinRoom events = %d, want 0", got)
	}
	if got := casts.countType(EvRoomUserCountChanged); got != 1 {
		t.Errorf("second join count events = %d, want 1", got)
	}
	info, err := c.Rooms.Get(roomID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if info.UserCount != 2 {
		t.Errorf("membership size after double join = %d, want 2", info.UserCount)
	}
}

func TestLeaveRoomErrors(t *testing.T) {
	c, casts := newTestCoordinator()
	if err := c.JoinLobby("conn-a", mustUser(t, "u1", "alice")); err != nil {
		t.Fatalf("JoinLobby: %v", err)
	}
	if err := c.JoinLobby("conn-b", mustUser(t, "u2", "bob")); err != nil {
		t.Fatalf("JoinLobby: %v", err)
	}
	if err := c.CreateRoom("conn-a", "r"); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	roomID := createdRoomID(t, casts)

	if err := c.LeaveRoom("conn-b", roomID); !errors.Is(err, domain.ErrNotInRoom) {
		t.Errorf("LeaveRoom non-member: got %v, want ErrNotInRoom", err)
	}
	if err := c.LeaveRoom("conn-b", "nope"); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Errorf("LeaveRoom unknown room: got %v, want ErrRoomNotFound", err)
	}
	if err := c.LeaveRoom("ghost", roomID); !errors.Is(err, domain.ErrNotRegistered) {
		t.Errorf("LeaveRoom unregistered: got %v, want ErrNotRegistered", err)
	}
}

func TestDisconnectBeforeLobbyJoinIsSilent(t *testing.T) {
	c, casts := newTestCoordinator()
	c.Disconnect("ghost")
	if got := len(casts.all()); got != 0 {
		t.Errorf("disconnect of unknown connection emitted %d events", got)
	}
}

func TestUserNeverInLobbyAndRoomAtOnce(t *testing.T) {
	c, casts := newTestCoordinator()
	if err := c.JoinLobby("conn-a", mustUser(t, "u1", "alice")); err != nil {
		t.Fatalf("JoinLobby: %v", err)
	}
	if err := c.JoinLobby("conn-b", mustUser(t, "u2", "bob")); err != nil {
		t.Fatalf("JoinLobby: %v", err)
	}
	if err := c.CreateRoom("conn-a", "r"); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	roomID := createdRoomID(t, casts)

	if err := c.JoinRoom("conn-b", roomID); err != nil {
		t.Fatalf("JoinRoom: %v", err)
	}
	if c.Lobby.Contains("u2") {
		t.Error("u2 in lobby while a room member")
	}
	if err := c.LeaveRoom("conn-b", roomID); err != nil {
		t.Fatalf("LeaveRoom: %v", err)
	}
	// Leaving a room does not return the user to the lobby; the client
	// re-issues joinLobby if it wants back in the pool.
	if c.Lobby.Contains("u2") {
		t.Error("u2 back in lobby without an explicit joinLobby")
	}
}

// Full walkthrough: two users meet in a room, one drops, the other leaves,
// the room disappears.
func TestLobbyRoomLifecycleScenario(t *testing.T) {
	c, casts := newTestCoordinator()

	if err := c.JoinLobby("conn-a", mustUser(t, "u1", "alice")); err != nil {
		t.Fatalf("A JoinLobby: %v", err)
	}
	if err := c.CreateRoom("conn-a", "karaoke"); err != nil {
		t.Fatalf("A CreateRoom: %v", err)
	}
	roomID := createdRoomID(t, casts)

	casts.reset()
	if err := c.JoinRoom("conn-a", roomID); err != nil {
		t.Fatalf("A JoinRoom: %v", err)
	}
	for _, e := range casts.all() {
		if ev, ok := e.event.(RoomUserCountChangedEvent); ok {
			if ev.Room != roomID || ev.Count != 1 {
				t.Errorf("count after A joins = %+v, want room %s count 1", ev, roomID)
			}
		}
	}

	if err := c.JoinLobby("conn-b", mustUser(t, "u2", "bob")); err != nil {
		t.Fatalf("B JoinLobby: %v", err)
	}
	casts.reset()
	if err := c.JoinRoom("conn-b", roomID); err != nil {
		t.Fatalf("B JoinRoom: %v", err)
	}
	var joined *UserJoinRoomEvent
	for _, e := range casts.all() {
		if ev, ok := e.event.(UserJoinRoomEvent); ok {
			if e.audience != "room" || e.target != string(roomID) {
				t.Errorf("userJoinRoom audience = %s/%s", e.audience, e.target)
			}
			joined = &ev
		}
		if ev, ok := e.event.(RoomUserCountChangedEvent); ok && ev.Count != 2 {
			t.Errorf("count after B joins = %d, want 2", ev.Count)
		}
	}
	if joined == nil || joined.User.ID != "u2" {
		t.Fatalf("userJoinRoom for u2 not observed: %+v", joined)
	}

	// A disconnects abruptly: exactly one departure broadcast, room survives.
	casts.reset()
	c.Disconnect("conn-a")
	if got := casts.countType(EvUserLeaveRoom); got != 1 {
		t.Errorf("userLeaveRoom after disconnect = %d, want 1", got)
	}
	if got := casts.countType(EvRoomDeleted); got != 0 {
		t.Errorf("roomDeleted after disconnect = %d, want 0", got)
	}
	for _, e := range casts.all() {
		if ev, ok := e.event.(RoomUserCountChangedEvent); ok && ev.Count != 1 {
			t.Errorf("count after A disconnects = %d, want 1", ev.Count)
		}
	}
	if _, err := c.Registry.Lookup("conn-a"); !errors.Is(err, domain.ErrNotRegistered) {
		t.Errorf("registry entry survived disconnect: %v", err)
	}
	if _, err := c.Rooms.Get(roomID); err != nil {
		t.Fatalf("room gone after non-final departure: %v", err)
	}

	// B leaves: the drained room is deleted and announced globally, with no
	// count update alongside.
	casts.reset()
	if err := c.LeaveRoom("conn-b", roomID); err != nil {
		t.Fatalf("B LeaveRoom: %v", err)
	}
	var sawDeleted bool
	for _, e := range casts.all() {
		if ev, ok := e.event.(RoomDeletedEvent); ok {
			sawDeleted = true
			if e.audience != "all" {
				t.Errorf("roomDeleted audience = %s, want all", e.audience)
			}
			if ev.Room != roomID {
				t.Errorf("roomDeleted id = %s, want %s", ev.Room, roomID)
			}
		}
	}
	if !sawDeleted {
		t.Fatal("roomDeleted not broadcast")
	}
	if got := casts.countType(EvRoomUserCountChanged); got != 0 {
		t.Errorf("count update emitted alongside deletion: %d", got)
	}
	if _, err := c.Rooms.Get(roomID); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("Get after deletion: got %v, want ErrRoomNotFound", err)
	}
}
