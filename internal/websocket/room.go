package websocket

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/yprite/Tesla-LockChime-sub001/internal/chat"
	"github.com/yprite/Tesla-LockChime-sub001/internal/models"
)

type eventKind int

const (
	eventJoin eventKind = iota
	eventMessage
	eventLeave
)

type event struct {
	kind   eventKind
	client *Client
	data   []byte
}

// Room coordinates one chat room. Its goroutine is the only writer of the
// connection set and handles join, message and leave events strictly one
// after another, so every member sees them in the same order.
type Room struct {
	name string
	hub  *Hub
	log  zerolog.Logger

	events chan event
	quit   chan struct{}
	done   chan struct{}

	// ready is closed once the directory claim settled; claimErr is set
	// before that when the claim failed.
	ready    chan struct{}
	claimErr error

	// refs is guarded by hub.mu.
	refs int

	// Owned by the run goroutine.
	clients map[string]*Client
}

func newRoom(h *Hub, name string) *Room {
	return &Room{
		name:    name,
		hub:     h,
		log:     h.log.With().Str("room", name).Logger(),
		events:  make(chan event),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		ready:   make(chan struct{}),
		clients: make(map[string]*Client),
	}
}

func (r *Room) isReady() bool {
	select {
	case <-r.ready:
		return r.claimErr == nil
	default:
		return false
	}
}

func (r *Room) Name() string {
	return r.name
}

// Accept registers conn as a member named user and starts its pumps. The
// join notice is broadcast before any frame from conn is read.
func (r *Room) Accept(conn *websocket.Conn, user string) (*Client, error) {
	client := NewClient(r, conn, user)
	if err := r.submit(event{kind: eventJoin, client: client}); err != nil {
		_ = conn.Close()
		return nil, err
	}

	go client.WritePump()
	go client.ReadPump()

	return client, nil
}

// Abandon gives back a reservation from Hub.Acquire that never turned into
// a connection.
func (r *Room) Abandon() {
	r.hub.release(r)
}

func (r *Room) submit(ev event) error {
	select {
	case r.events <- ev:
		return nil
	case <-r.done:
		return ErrHubStopped
	}
}

func (r *Room) run(ctx context.Context) {
	defer close(r.done)

	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			r.hub.forget(r)
			return

		case <-r.quit:
			return

		case ev := <-r.events:
			switch ev.kind {
			case eventJoin:
				r.handleJoin(ctx, ev.client)
			case eventMessage:
				r.handleMessage(ctx, ev.client, ev.data)
			case eventLeave:
				if r.handleLeave(ctx, ev.client) {
					r.hub.release(r)
				}
			}
		}
	}
}

func (r *Room) handleJoin(ctx context.Context, c *Client) {
	meta := models.SessionMetadata{
		User:     c.user,
		Room:     r.name,
		JoinedAt: r.hub.now(),
	}

	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := r.hub.store.Attach(storeCtx, c.ID, meta); err != nil {
		// Later reads fall back to defaults.
		c.log.Warn().Err(err).Msg("attach session failed")
	}

	r.clients[c.ID] = c
	c.log.Info().Str("user", meta.User).Int("members", len(r.clients)).Msg("joined")

	r.broadcast(models.NewSystemMessage(r.name, meta.User+" joined", meta.JoinedAt))
}

func (r *Room) handleMessage(ctx context.Context, c *Client, data []byte) {
	if _, ok := r.clients[c.ID]; !ok {
		return
	}

	var payload models.Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		c.log.Debug().Err(err).Msg("dropping malformed frame")
		return
	}

	text := chat.SanitizeText(payload.Text)
	if text == "" {
		return
	}

	loadCtx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()
	meta := r.hub.store.Load(loadCtx, c.ID)

	user := meta.UserOr(chat.DefaultUser)
	if payload.User != nil {
		user = chat.SanitizeName(*payload.User, user)
	}

	r.broadcast(models.NewChatMessage(meta.RoomOr(chat.DefaultRoom), user, text, r.hub.now()))
}

// handleLeave reports whether c was a member.
func (r *Room) handleLeave(ctx context.Context, c *Client) bool {
	if _, ok := r.clients[c.ID]; !ok {
		return false
	}
	delete(r.clients, c.ID)

	loadCtx, cancel := context.WithTimeout(ctx, loadTimeout)
	meta := r.hub.store.Load(loadCtx, c.ID)
	cancel()
	user := meta.UserOr(chat.DefaultUser)

	c.log.Info().Str("user", user).Int("members", len(r.clients)).Msg("left")

	r.broadcast(models.NewSystemMessage(meta.RoomOr(chat.DefaultRoom), user+" left", r.hub.now()))

	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	r.hub.store.Detach(storeCtx, c.ID)
	c.close()
	return true
}

// broadcast makes one non-blocking delivery attempt per member. A failed
// attempt only affects that member.
func (r *Room) broadcast(msg models.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		r.log.Error().Err(err).Msg("encode message")
		return
	}

	for _, c := range r.clients {
		if err := c.Deliver(data); err != nil {
			c.log.Debug().Err(err).Msg("delivery dropped")
		}
	}
}

func (r *Room) closeAll() {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	for id, c := range r.clients {
		r.hub.store.Detach(ctx, id)
		c.close()
		delete(r.clients, id)
	}
}
