package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/oggyb/muzz-match/internal/auth"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Registrar mounts the websocket endpoint. Authentication happens in the
// router middleware, so the token may also arrive as ?token=.
type Registrar struct {
	gateway *Gateway
	log     *slog.Logger
}

func NewRegistrar(g *Gateway, log *slog.Logger) *Registrar {
	return &Registrar{gateway: g, log: log}
}

func (r *Registrar) Register(rg *gin.RouterGroup) {
	rg.GET("/chat/ws", r.serve)
}

func (r *Registrar) serve(c *gin.Context) {
	userID := auth.UserID(c)
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		r.log.Warn("websocket upgrade failed", "user", userID, "err", err)
		return
	}

	conn := NewConn(userID)
	registry := r.gateway.Registry()
	registry.Register(conn)
	r.log.Info("chat connected", "user", userID, "online", registry.Len())

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		r.writePump(ws, conn)
	}()

	r.readPump(c.Request.Context(), ws, conn)

	registry.Deregister(conn)
	conn.Close()
	<-writerDone
	r.log.Info("chat disconnected", "user", userID)
}

// readPump handles frames one at a time until the peer goes away.
func (r *Registrar) readPump(ctx context.Context, ws *websocket.Conn, conn *Conn) {
	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		typ, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				r.log.Debug("chat read error", "user", conn.UserID, "err", err)
			}
			return
		}
		if typ != websocket.TextMessage {
			continue
		}

		reply, err := json.Marshal(r.gateway.Handle(ctx, conn.UserID, raw))
		if err != nil {
			r.log.Error("chat reply encoding failed", "user", conn.UserID, "err", err)
			continue
		}
		if !conn.Reply(reply) {
			return
		}
	}
}

// writePump drains conn's queue and keeps the peer alive with pings.
// It closes the socket on exit so a blocked reader wakes up.
func (r *Registrar) writePump(ws *websocket.Conn, conn *Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = ws.Close()
	}()

	for {
		select {
		case frame := <-conn.Send():
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				r.log.Debug("chat write failed", "user", conn.UserID, "err", err)
				conn.Close()
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}
		case <-conn.Done():
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
