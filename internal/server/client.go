package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"hla-gateway/internal/engine"
	"hla-gateway/internal/engine/handlers"
	"hla-gateway/pkg/api"
	"hla-gateway/pkg/logger"
)

// Настройки WebSocket
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 << 10
	commandTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client - наблюдатель потока: получает кадры сессии и отправляет команды.
type Client struct {
	Session *engine.Session
	Conn    *websocket.Conn
	ID      string
	Send    chan api.StreamMessage

	log *logrus.Entry
}

// NewClient регистрирует наблюдателя в хабе сессии.
func NewClient(session *engine.Session, conn *websocket.Conn) *Client {
	id := uuid.NewString()
	return &Client{
		Session: session,
		Conn:    conn,
		ID:      id,
		Send:    session.Hub.Register(id),
		log:     logger.For("ws").WithField("observer", id),
	}
}

// readPump читает команды наблюдателя и отвечает кадрами RESULT или ERROR.
func (c *Client) readPump() {
	defer func() {
		c.Session.Hub.Unregister(c.ID)
		if err := c.Conn.Close(); err != nil {
			c.log.WithError(err).Debug("failed to close websocket connection")
		}
		c.log.Info("Observer disconnected")
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.WithError(err).Warn("failed to set read deadline")
	}
	c.Conn.SetPongHandler(func(string) error {
		if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.log.WithError(err).Warn("failed to set pong read deadline")
		}
		return nil
	})

	c.log.Info("Observer connected")
	c.Session.Hub.SendTo(c.ID, api.StreamMessage{Type: "WELCOME", Text: c.ID})

	for {
		var cmd api.ClientCommand
		if err := c.Conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Warn("WS read error")
			}
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		res, err := c.Session.Execute(ctx, cmd)
		cancel()
		if err != nil {
			c.Session.Hub.SendTo(c.ID, api.StreamMessage{Type: "ERROR", Text: err.Error()})
			continue
		}
		c.Session.Hub.SendTo(c.ID, resultFrame(res))
	}
}

// writePump отправляет кадры наблюдателю и пингует соединение.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.Conn.Close(); err != nil {
			c.log.WithError(err).Debug("failed to close websocket connection in writePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.Send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.WithError(err).Warn("failed to set write deadline")
			}
			if !ok {
				if err := c.Conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.log.WithError(err).Debug("write close message failed")
				}
				return
			}
			if err := c.Conn.WriteJSON(message); err != nil {
				c.log.WithError(err).Debug("write json message failed")
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.WithError(err).Warn("failed to set ping write deadline")
			}
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.WithError(err).Debug("ping failed")
				return
			}
		}
	}
}

func resultFrame(res handlers.Result) api.StreamMessage {
	frame := api.StreamMessage{Type: "RESULT", Text: res.Msg}
	if len(res.Messages) > 0 {
		msg := res.Messages[0]
		if msg.AboutActorID != uuid.Nil {
			frame.AboutActorID = msg.AboutActorID.String()
		}
		frame.ActorType = msg.ActorType.FullName()
		frame.Name = msg.Name
	}
	return frame
}
