package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"songroom/internal/domain"
)

// roomEntry pairs a room with its own mutex so mutations on different rooms
// proceed fully in parallel. The tombstone flag linearizes the
// drain-to-empty deletion against a concurrent join on the same room: a
// join that loses the race observes deleted=true and fails with
// ErrRoomNotFound instead of resurrecting the room.
type roomEntry struct {
	mu      sync.Mutex
	room    *domain.Room
	deleted bool
}

// RoomStore is the in-memory collection of rooms, keyed by room id, plus a
// reverse user→room index for the disconnect path.
type RoomStore struct {
	mu     sync.RWMutex
	rooms  map[domain.RoomID]*roomEntry
	byUser map[domain.UserID]domain.RoomID
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms:  make(map[domain.RoomID]*roomEntry),
		byUser: make(map[domain.UserID]domain.RoomID),
	}
}

// Create allocates a fresh room with the owner as first member. Id
// generation is collision-free within the process lifetime, so this always
// succeeds.
func (s *RoomStore) Create(owner *domain.User, name domain.RoomName) RoomInfo {
	room := &domain.Room{
		ID:        domain.RoomID(uuid.NewString()),
		Name:      name,
		OwnerID:   owner.ID,
		Users:     map[domain.UserID]*domain.User{owner.ID: owner},
		CreatedAt: time.Now(),
	}
	s.mu.Lock()
	s.rooms[room.ID] = &roomEntry{room: room}
	s.byUser[owner.ID] = room.ID
	s.mu.Unlock()
	log.Info().Str("module", "core.rooms").Str("room", string(room.ID)).Str("owner", string(owner.ID)).Msg("room created")
	return snapshotRoom(room)
}

func (s *RoomStore) entry(id domain.RoomID) (*roomEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return e, nil
}

func (s *RoomStore) Get(id domain.RoomID) (RoomInfo, error) {
	e, err := s.entry(id)
	if err != nil {
		return RoomInfo{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return RoomInfo{}, domain.ErrRoomNotFound
	}
	return snapshotRoom(e.room), nil
}

// Join adds the user to the room's membership. Joining a room the user is
// already a member of is a no-op success with added=false.
func (s *RoomStore) Join(id domain.RoomID, user *domain.User) (info RoomInfo, added bool, err error) {
	e, err := s.entry(id)
	if err != nil {
		return RoomInfo{}, false, err
	}
	e.mu.Lock()
	if e.deleted {
		e.mu.Unlock()
		return RoomInfo{}, false, domain.ErrRoomNotFound
	}
	if _, member := e.room.Users[user.ID]; !member {
		e.room.Users[user.ID] = user
		added = true
	}
	info = snapshotRoom(e.room)
	e.mu.Unlock()

	s.mu.Lock()
	s.byUser[user.ID] = id
	s.mu.Unlock()
	log.Info().Str("module", "core.rooms").Str("room", string(id)).Str("user", string(user.ID)).Bool("added", added).Msg("member joined")
	return info, added, nil
}

// Leave removes the user from membership. When membership drains to zero the
// room is removed in the same step and shouldDelete reports true; the
// emptiness check is atomic with respect to concurrent join/leave on the
// same room.
func (s *RoomStore) Leave(id domain.RoomID, userID domain.UserID) (shouldDelete bool, err error) {
	e, err := s.entry(id)
	if err != nil {
		return false, err
	}
	e.mu.Lock()
	if e.deleted {
		e.mu.Unlock()
		return false, domain.ErrRoomNotFound
	}
	if _, member := e.room.Users[userID]; !member {
		e.mu.Unlock()
		return false, domain.ErrNotInRoom
	}
	delete(e.room.Users, userID)
	shouldDelete = e.room.UserCount() == 0
	if shouldDelete {
		e.deleted = true
	}
	e.mu.Unlock()

	s.mu.Lock()
	delete(s.byUser, userID)
	if shouldDelete {
		delete(s.rooms, id)
	}
	s.mu.Unlock()
	log.Info().Str("module", "core.rooms").Str("room", string(id)).Str("user", string(userID)).Bool("empty", shouldDelete).Msg("member left")
	return shouldDelete, nil
}

// Delete removes a room unconditionally. The should-I-delete decision is
// made once, inside Leave; this is cleanup plumbing for the coordinator.
func (s *RoomStore) Delete(id domain.RoomID) {
	s.mu.Lock()
	e, ok := s.rooms[id]
	if ok {
		delete(s.rooms, id)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	e.mu.Lock()
	e.deleted = true
	uids := make([]domain.UserID, 0, len(e.room.Users))
	for uid := range e.room.Users {
		uids = append(uids, uid)
	}
	e.mu.Unlock()

	s.mu.Lock()
	for _, uid := range uids {
		if s.byUser[uid] == id {
			delete(s.byUser, uid)
		}
	}
	s.mu.Unlock()
	log.Info().Str("module", "core.rooms").Str("room", string(id)).Msg("room deleted")
}

// RoomOf reports which room a user currently belongs to, if any.
func (s *RoomStore) RoomOf(userID domain.UserID) (domain.RoomID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUser[userID]
	return id, ok
}

func (s *RoomStore) List() []RoomInfo {
	s.mu.RLock()
	entries := make([]*roomEntry, 0, len(s.rooms))
	for _, e := range s.rooms {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]RoomInfo, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.deleted {
			out = append(out, snapshotRoom(e.room))
		}
		e.mu.Unlock()
	}
	return out
}
