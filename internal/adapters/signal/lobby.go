package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"songroom/internal/app"
	"songroom/internal/core"
	"songroom/internal/domain"
)

func (ctl *Controller) handleJoinLobby(cid core.ConnectionID, c *WsConn, data []byte) {
	type payload struct {
		Type string `json:"type"`
		User struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"user"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad joinLobby payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	user, err := domain.NewUser(p.User.ID, p.User.Username)
	if err != nil {
		ctl.sendError(c, err.Error())
		return
	}
	if err := ctl.Coord.JoinLobby(cid, user); err != nil {
		ctl.sendError(c, err.Error())
		return
	}
}

func (ctl *Controller) handleListRooms(c *WsConn) {
	ctl.sendJSON(c, app.RoomListEvent{Type: app.EvRoomList, Rooms: ctl.Coord.ListRooms()})
}

func (ctl *Controller) handlePing(c *WsConn) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(c, resp)
}

// sendError reports a failed request to the caller only; errors are never
// broadcast.
func (ctl *Controller) sendError(c *WsConn, msg string) {
	ctl.sendJSON(c, app.ErrorEvent{Type: app.EvError, Error: msg})
}
