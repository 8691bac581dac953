package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"songroom/internal/core"
	"songroom/internal/domain"
)

func (ctl *Controller) handleCreateRoom(cid core.ConnectionID, c *WsConn, data []byte) {
	type payload struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad createRoom payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	raw := p.Name
	if len(raw) > domain.MaxRoomNameLen {
		raw = raw[:domain.MaxRoomNameLen]
	}
	if err := ctl.Coord.CreateRoom(cid, domain.RoomName(raw)); err != nil {
		ctl.sendError(c, err.Error())
	}
}

func (ctl *Controller) handleJoinRoom(cid core.ConnectionID, c *WsConn, data []byte) {
	type payload struct {
		Type string `json:"type"`
		Room string `json:"room"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad joinRoom payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	log.Info().Str("module", "signal").Str("cid", string(cid)).Str("room", p.Room).Msg("join room")
	if err := ctl.Coord.JoinRoom(cid, domain.RoomID(p.Room)); err != nil {
		ctl.sendError(c, err.Error())
	}
}

func (ctl *Controller) handleLeaveRoom(cid core.ConnectionID, c *WsConn, data []byte) {
	type payload struct {
		Type string `json:"type"`
		Room string `json:"room"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad leaveRoom payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	log.Info().Str("module", "signal").Str("cid", string(cid)).Str("room", p.Room).Msg("leave room")
	if err := ctl.Coord.LeaveRoom(cid, domain.RoomID(p.Room)); err != nil {
		ctl.sendError(c, err.Error())
	}
}
