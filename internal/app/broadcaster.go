// Package app holds the coordinator: the sole mutator of the registry,
// lobby set and room store, and the orchestrator of every broadcast.
package app

import (
	"songroom/internal/core"
	"songroom/internal/domain"
)

// Broadcaster is the publish side of the broadcast transport: one channel
// per room id plus one global channel. Delivery is fire-and-forget; the
// coordinator never waits for subscriber acknowledgement.
type Broadcaster interface {
	ToConn(cid core.ConnectionID, event any)
	ToRoom(id domain.RoomID, event any)
	ToAll(event any)

	// Subscribe must take effect before any subsequent ToRoom publish so a
	// joining connection observes its own join event. It reports whether the
	// subscription is new.
	Subscribe(cid core.ConnectionID, id domain.RoomID) bool
	Unsubscribe(cid core.ConnectionID, id domain.RoomID)
}
