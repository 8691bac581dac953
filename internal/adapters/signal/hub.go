package signal

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"songroom/internal/core"
	"songroom/internal/domain"
)

// Hub is the in-process broadcast fabric: every attached connection is part
// of the global audience, and each room id names a channel with its own
// subscriber set. It implements app.Broadcaster. Sends are fire-and-forget;
// a subscriber with a full send buffer just misses the frame.
type Hub struct {
	mu    sync.RWMutex
	conns map[core.ConnectionID]*WsConn
	rooms map[domain.RoomID]map[core.ConnectionID]struct{}
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[core.ConnectionID]*WsConn),
		rooms: make(map[domain.RoomID]map[core.ConnectionID]struct{}),
	}
}

// Attach joins a connection to the global audience.
func (h *Hub) Attach(cid core.ConnectionID, conn *WsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[cid] = conn
	log.Info().Str("module", "signal.hub").Str("cid", string(cid)).Int("total", len(h.conns)).Msg("connection attached")
}

// Detach drops the connection from the global audience and from every room
// channel it was subscribed to.
func (h *Hub) Detach(cid core.ConnectionID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, cid)
	for id, subs := range h.rooms {
		delete(subs, cid)
		if len(subs) == 0 {
			delete(h.rooms, id)
		}
	}
	log.Info().Str("module", "signal.hub").Str("cid", string(cid)).Int("total", len(h.conns)).Msg("connection detached")
}

func (h *Hub) Subscribe(cid core.ConnectionID, id domain.RoomID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.rooms[id]
	if !ok {
		subs = make(map[core.ConnectionID]struct{})
		h.rooms[id] = subs
	}
	if _, exists := subs[cid]; exists {
		return false
	}
	subs[cid] = struct{}{}
	return true
}

func (h *Hub) Unsubscribe(cid core.ConnectionID, id domain.RoomID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.rooms[id]
	if !ok {
		return
	}
	delete(subs, cid)
	if len(subs) == 0 {
		delete(h.rooms, id)
	}
}

func (h *Hub) ToConn(cid core.ConnectionID, event any) {
	frame, ok := marshal(event)
	if !ok {
		return
	}
	h.mu.RLock()
	conn := h.conns[cid]
	h.mu.RUnlock()
	if conn == nil {
		return
	}
	h.push(cid, conn, frame)
}

func (h *Hub) ToRoom(id domain.RoomID, event any) {
	frame, ok := marshal(event)
	if !ok {
		return
	}
	h.mu.RLock()
	targets := make(map[core.ConnectionID]*WsConn, len(h.rooms[id]))
	for cid := range h.rooms[id] {
		if conn, ok := h.conns[cid]; ok {
			targets[cid] = conn
		}
	}
	h.mu.RUnlock()
	for cid, conn := range targets {
		h.push(cid, conn, frame)
	}
}

func (h *Hub) ToAll(event any) {
	frame, ok := marshal(event)
	if !ok {
		return
	}
	h.mu.RLock()
	targets := make(map[core.ConnectionID]*WsConn, len(h.conns))
	for cid, conn := range h.conns {
		targets[cid] = conn
	}
	h.mu.RUnlock()
	for cid, conn := range targets {
		h.push(cid, conn, frame)
	}
}

func (h *Hub) push(cid core.ConnectionID, conn *WsConn, frame []byte) {
	if err := conn.TrySend(frame); err != nil {
		// Drop the frame for the slow subscriber; a lobby client that misses
		// a notification can resync from the room list.
		log.Warn().Err(err).Str("module", "signal.hub").Str("cid", string(cid)).Msg("dropped frame")
	}
}

func marshal(event any) ([]byte, bool) {
	b, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("module", "signal.hub").Msg("marshal event")
		return nil, false
	}
	return b, true
}
