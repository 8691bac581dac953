// Package core owns the in-memory coordination state: the connection
// registry, the lobby set and the room store. All mutation happens through
// the coordinator in internal/app; nothing here touches the transport.
package core

import (
	"time"

	"songroom/internal/domain"
)

// ConnectionID is bound 1:1 to a live transport connection for its lifetime
// and is invalidated the instant the transport disconnects.
type ConnectionID string

// RoomInfo is a read-only room summary for replies and broadcasts
// (no membership map, safe to hand across goroutines).
type RoomInfo struct {
	ID        domain.RoomID   `json:"id"`
	Name      domain.RoomName `json:"name"`
	OwnerID   domain.UserID   `json:"ownerId"`
	UserCount int             `json:"userCount"`
	CreatedAt time.Time       `json:"createdAt"`
}

func snapshotRoom(r *domain.Room) RoomInfo {
	return RoomInfo{
		ID:        r.ID,
		Name:      r.Name,
		OwnerID:   r.OwnerID,
		UserCount: r.UserCount(),
		CreatedAt: r.CreatedAt,
	}
}
