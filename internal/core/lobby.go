package core

import (
	"sync"

	"songroom/internal/domain"
)

// Lobby is the waiting pool of connected users not currently inside a room.
// Join and Leave are idempotent; membership is disjoint from every room's.
type Lobby struct {
	mu    sync.RWMutex
	users map[domain.UserID]*domain.User
}

func NewLobby() *Lobby {
	return &Lobby{users: make(map[domain.UserID]*domain.User)}
}

func (l *Lobby) Join(user *domain.User) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.users[user.ID] = user
}

func (l *Lobby) Leave(id domain.UserID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.users, id)
}

func (l *Lobby) Contains(id domain.UserID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.users[id]
	return ok
}

func (l *Lobby) Snapshot() []*domain.User {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*domain.User, 0, len(l.users))
	for _, u := range l.users {
		out = append(out, u)
	}
	return out
}
