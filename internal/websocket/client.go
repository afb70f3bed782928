package websocket

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 64 * 1024
)

// Client is one live connection in a room.
type Client struct {
	ID   string
	user string

	conn *websocket.Conn
	send chan []byte
	room *Room
	log  zerolog.Logger

	// Touched only by the room goroutine.
	closed bool
}

func NewClient(room *Room, conn *websocket.Conn, user string) *Client {
	id := uuid.NewString()
	return &Client{
		ID:   id,
		user: user,
		conn: conn,
		send: make(chan []byte, room.hub.sendBuffer),
		room: room,
		log:  room.log.With().Str("conn", id).Logger(),
	}
}

// Deliver queues data without blocking. A full queue or a closed client is
// reported and nothing is retried.
func (c *Client) Deliver(data []byte) error {
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrClientQueueFull
	}
}

func (c *Client) close() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ReadPump forwards text frames to the room until the connection fails,
// then reports the leave.
func (c *Client) ReadPump() {
	defer func() {
		if err := c.room.submit(event{kind: eventLeave, client: c}); err != nil {
			_ = c.conn.Close()
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				c.log.Debug().Err(err).Msg("connection error")
			}
			return
		}

		if msgType != websocket.TextMessage {
			continue
		}

		if err := c.room.submit(event{kind: eventMessage, client: c, data: data}); err != nil {
			return
		}
	}
}

// WritePump writes queued frames and keeps the connection alive with pings.
// When the room closes the queue it sends a normal closure and closes the
// connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.Debug().Err(err).Msg("write failed")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
