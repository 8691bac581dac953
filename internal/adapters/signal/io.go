package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"songroom/internal/core"
)

func (ctl *Controller) writePump(ctx context.Context, cid core.ConnectionID, c *WsConn) {
	period := ctl.Cfg.PingPeriod
	if period <= 0 {
		period = 54 * time.Second
	}
	ping := time.NewTicker(period)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("cid", string(cid)).Msg("writePump ctx done")
			return
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("writePump ping")
				return
			}
		case frame, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Str("cid", string(cid)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("writePump write error")
				return
			}
		}
	}
}

// readPump owns the connection's lifetime: when the read side fails for any
// reason the deferred cleanup detaches the connection from the hub and runs
// the coordinator's disconnect path, synchronously, before the goroutine
// exits. The client is unreachable by then; only other parties hear about
// it.
func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, cid core.ConnectionID, c *WsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("cid", string(cid)).Msg("readPump closing")
		cancel()
		ctl.Hub.Detach(cid)
		ctl.Coord.Disconnect(cid)
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warn().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("readPump read error")
				}
				return
			}
			ctl.dispatch(cid, c, data)
		}
	}
}

// dispatch is the explicit request table: one case per inbound kind.
func (ctl *Controller) dispatch(cid core.ConnectionID, c *WsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendError(c, "bad_payload")
		return
	}

	switch env.Type {
	case "joinLobby":
		ctl.handleJoinLobby(cid, c, data)
	case "createRoom":
		ctl.handleCreateRoom(cid, c, data)
	case "joinRoom":
		ctl.handleJoinRoom(cid, c, data)
	case "leaveRoom":
		ctl.handleLeaveRoom(cid, c, data)
	case "listRooms":
		ctl.handleListRooms(c)
	case "ping":
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown request")
	}
}

func (ctl *Controller) sendJSON(c *WsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
