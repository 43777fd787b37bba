package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/vleray/parley/internal/app"
	"github.com/vleray/parley/internal/config"
	"github.com/vleray/parley/internal/core"
	"github.com/vleray/parley/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Controller upgrades HTTP requests and shuttles frames between the
// connection and the router.
type Controller struct {
	Router *app.Router
	Cfg    *config.Config
}

func NewController(router *app.Router, cfg *config.Config) *Controller {
	return &Controller{Router: router, Cfg: cfg}
}

// Handle upgrades the request and runs the connection's pumps. The router
// sees exactly one Disconnect per connection, fired by the read pump's
// teardown whatever the close reason was.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("upgrade failed")
		return
	}
	conn.SetReadLimit(ctl.Cfg.ReadLimit)

	wrapped := newConn(conn, ctl.Cfg.SendBuffer)
	sess := ctl.Router.Connect(wrapped)
	log.Info().Str("module", "ws").Str("sid", string(sess.ID)).Str("remote", conn.RemoteAddr().String()).Msg("connection established")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, wrapped)
	go ctl.readPump(ctx, cancel, sess.ID, wrapped)
}

func (ctl *Controller) writePump(ctx context.Context, c *Conn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, sid domain.SessionID, c *Conn) {
	limiter := newRateLimiter(ctl.Cfg.RateLimit, ctl.Cfg.RateInterval)

	defer func() {
		log.Info().Str("module", "ws").Str("sid", string(sid)).Msg("readPump closing")
		cancel()
		c.Close()
		ctl.Router.Disconnect(sid)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warn().Err(err).Str("module", "ws").Str("sid", string(sid)).Msg("readPump read error")
				}
				return
			}

			ev, err := decode(data)
			if err != nil {
				log.Warn().Err(err).Str("module", "ws").Str("sid", string(sid)).Msg("bad frame")
				continue
			}
			if _, isChat := ev.(core.SendMessage); isChat && !limiter.Allow() {
				log.Debug().Str("module", "ws").Str("sid", string(sid)).Msg("rate limited")
				continue
			}
			ctl.Router.Handle(sid, ev)
		}
	}
}

// decode maps a JSON frame to its event variant. The wire names match the
// browser client: room, publicRoom, nickname, sendMessage.
func decode(data []byte) (core.Inbound, error) {
	var env struct {
		Type     string `json:"type"`
		RoomCode string `json:"roomCode"`
		Nickname string `json:"nickname"`
		Text     string `json:"text"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	switch env.Type {
	case "room":
		return core.JoinPrivate{Code: env.RoomCode}, nil
	case "publicRoom":
		return core.JoinPublic{}, nil
	case "nickname":
		return core.SetNickname{Nickname: env.Nickname}, nil
	case "sendMessage":
		return core.SendMessage{Text: env.Text}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
}
