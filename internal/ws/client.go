package ws

import (
	"encoding/json"
	"time"

	"holdem-service/internal/game"
	"holdem-service/internal/service/auth"
	"holdem-service/pkg/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	readDeadline  = 60 * time.Second
	pingEvery     = 25 * time.Second
	writeDeadline = 10 * time.Second
	sendBuffer    = 64
)

// Client is one websocket connection bound to an identity for its lifetime.
type Client struct {
	hub      *Hub
	handler  *Handler
	conn     *websocket.Conn
	identity *auth.Identity

	send      chan game.Message
	closeOnce chan struct{}
}

func newClient(hub *Hub, handler *Handler, conn *websocket.Conn, identity *auth.Identity) *Client {
	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})
	return &Client{
		hub:       hub,
		handler:   handler,
		conn:      conn,
		identity:  identity,
		send:      make(chan game.Message, sendBuffer),
		closeOnce: make(chan struct{}),
	}
}

func (c *Client) run() {
	go c.writePump()
	c.readPump()
}

// enqueue hands a message to the write pump without blocking the caller. A
// connection that cannot drain its buffer loses messages rather than
// stalling a table broadcast.
func (c *Client) enqueue(msg game.Message) {
	select {
	case c.send <- msg:
	case <-c.closeOnce:
	default:
		logger.Log.Warn("dropping message for slow connection",
			zap.String("playerID", c.identity.ID),
			zap.String("type", msg.Type),
		)
	}
}

func (c *Client) close() {
	select {
	case <-c.closeOnce:
	default:
		close(c.closeOnce)
	}
	c.conn.Close()
}

func (c *Client) readPump() {
	defer func() {
		c.handler.onDisconnect(c)
		c.close()
	}()

	for {
		mt, raw, err := c.conn.ReadMessage()
		if err != nil {
			logger.Log.Info("WS read error",
				zap.Error(err),
				zap.String("playerID", c.identity.ID),
			)
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		var intent struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &intent); err != nil {
			c.enqueue(game.Message{
				Type: game.MsgError,
				Data: game.ErrorPayload{Message: "invalid payload"},
			})
			continue
		}
		if intent.Type == "" {
			continue
		}

		c.handler.dispatch(c, intent.Type, intent.Data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingEvery)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteJSON(msg); err != nil {
				logger.Log.Info("WS write error",
					zap.Error(err),
					zap.String("playerID", c.identity.ID),
				)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-c.closeOnce:
			return
		}
	}
}
