// Package signal is the WebSocket adapter: it upgrades connections, pumps
// frames and translates the wire protocol into coordinator calls.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"songroom/internal/app"
	"songroom/internal/config"
	"songroom/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Coord *app.Coordinator
	Hub   *Hub
	Cfg   *config.Config
}

func NewController(coord *app.Coordinator, hub *Hub, cfg *config.Config) *Controller {
	return &Controller{Coord: coord, Hub: hub, Cfg: cfg}
}

// WsConn wraps one websocket with a buffered send channel so publishing
// never blocks the coordinator.
type WsConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) TrySend(frame []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- frame:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleLobby upgrades the request and starts the pumps. The connection id
// is minted here and lives exactly as long as the transport connection.
func (ctl *Controller) HandleLobby(ctx context.Context, c *gin.Context) {
	cid := core.ConnectionID(uuid.NewString())
	log.Info().Str("module", "signal").Str("cid", string(cid)).Str("client", c.GetString("client_token")).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}
	if ctl.Cfg.ReadLimit > 0 {
		ws.SetReadLimit(ctl.Cfg.ReadLimit)
	}

	conn := &WsConn{
		conn: ws,
		send: make(chan []byte, 32),
	}
	ctl.Hub.Attach(cid, conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, cid, conn)
	go ctl.readPump(ctx, cancel, cid, conn)
}
