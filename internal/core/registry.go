package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"songroom/internal/domain"
)

// Registry maps transport connections to the user identity currently using
// them. It is the only piece with direct knowledge of connection ids; an
// entry is created on the first lobby join and removed exactly once, at
// disconnect.
type Registry struct {
	mu    sync.RWMutex
	users map[ConnectionID]*domain.User
}

func NewRegistry() *Registry {
	return &Registry{users: make(map[ConnectionID]*domain.User)}
}

// Register binds a connection to a user. Re-registration is not permitted;
// callers must check first in ambiguous flows.
func (r *Registry) Register(cid ConnectionID, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[cid]; ok {
		return domain.ErrAlreadyRegistered
	}
	r.users[cid] = user
	log.Info().Str("module", "core.registry").Str("cid", string(cid)).Str("user", string(user.ID)).Msg("registered connection")
	return nil
}

func (r *Registry) Lookup(cid ConnectionID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[cid]
	if !ok {
		return nil, domain.ErrNotRegistered
	}
	return u, nil
}

// Unregister removes and returns the bound user.
func (r *Registry) Unregister(cid ConnectionID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[cid]
	if !ok {
		return nil, domain.ErrNotRegistered
	}
	delete(r.users, cid)
	log.Info().Str("module", "core.registry").Str("cid", string(cid)).Str("user", string(u.ID)).Msg("unregistered connection")
	return u, nil
}
