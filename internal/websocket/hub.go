// Package websocket runs one coordinator goroutine per chat room and the
// connection pumps feeding it.
package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/yprite/Tesla-LockChime-sub001/internal/services"
)

const (
	defaultSendBuffer = 256

	// Upper bound for a single session store write or directory call.
	storeTimeout = 3 * time.Second

	// Loads run on the room goroutine for every frame, so a stalled store
	// costs at most this much per event before defaults apply.
	loadTimeout = 500 * time.Millisecond
)

// Hub owns the live rooms of this node. A room name maps to at most one
// Room at a time, and a Room only exists while this node holds the room in
// the directory. Directory calls run outside mu; a claim for a name starts
// only after any pending release of that name has finished.
type Hub struct {
	node      string
	store     services.SessionStore
	directory services.RoomDirectory
	log       zerolog.Logger

	sendBuffer int
	now        func() time.Time

	mu        sync.Mutex
	rooms     map[string]*Room
	releasing map[string]chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Hub)

// WithSendBuffer sets the per-connection outbound queue length.
func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithClock replaces time.Now for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) {
		if now != nil {
			h.now = now
		}
	}
}

func NewHub(node string, store services.SessionStore, directory services.RoomDirectory, log zerolog.Logger, opts ...Option) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		node:       node,
		store:      store,
		directory:  directory,
		log:        log.With().Str("component", "hub").Str("node", node).Logger(),
		sendBuffer: defaultSendBuffer,
		now:        time.Now,
		rooms:      make(map[string]*Room),
		releasing:  make(map[string]chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Acquire returns the live Room for name, starting its coordinator if
// needed, and reserves a place in it. Every successful Acquire must be
// followed by Room.Accept or Room.Abandon.
//
// Concurrent callers for a room that is still being claimed wait for that
// claim and share its outcome.
func (h *Hub) Acquire(ctx context.Context, name string) (*Room, error) {
	h.mu.Lock()
	if h.ctx.Err() != nil {
		h.mu.Unlock()
		return nil, ErrHubStopped
	}

	if room, ok := h.rooms[name]; ok {
		room.refs++
		h.mu.Unlock()

		<-room.ready
		if room.claimErr != nil {
			return nil, room.claimErr
		}
		return room, nil
	}

	room := newRoom(h, name)
	room.refs = 1
	h.rooms[name] = room
	h.wg.Add(1)
	pending := h.releasing[name]
	h.mu.Unlock()

	if err := h.claim(ctx, name, pending); err != nil {
		h.mu.Lock()
		if h.rooms[name] == room {
			delete(h.rooms, name)
		}
		h.mu.Unlock()

		room.claimErr = err
		close(room.ready)
		h.wg.Done()
		return nil, err
	}

	go func() {
		defer h.wg.Done()
		room.run(h.ctx)
	}()
	close(room.ready)
	h.log.Info().Str("room", name).Msg("room opened")

	return room, nil
}

// claim takes name in the directory for this node once the release in
// pending, if any, has finished.
func (h *Hub) claim(ctx context.Context, name string, pending <-chan struct{}) error {
	if pending != nil {
		select {
		case <-pending:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	claimCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	owner, granted, err := h.directory.Claim(claimCtx, name, h.node)
	if err != nil {
		return err
	}
	if !granted {
		return &RoomOwnedError{Room: name, Owner: owner}
	}
	return nil
}

// release drops one reservation on r. The last one retires the room: it
// leaves the registry, its coordinator stops and its directory claim is
// released.
func (h *Hub) release(r *Room) {
	h.mu.Lock()
	r.refs--
	if r.refs > 0 {
		h.mu.Unlock()
		return
	}

	done := h.unregisterLocked(r)
	close(r.quit)
	h.mu.Unlock()

	h.log.Info().Str("room", r.name).Msg("room retired")
	h.releaseClaim(r.name, done)
}

// forget removes r after its coordinator stopped on shutdown.
func (h *Hub) forget(r *Room) {
	h.mu.Lock()
	done := h.unregisterLocked(r)
	h.mu.Unlock()

	h.releaseClaim(r.name, done)
}

// unregisterLocked removes r from the registry and marks its claim as being
// released. It returns nil if r was already gone.
func (h *Hub) unregisterLocked(r *Room) chan struct{} {
	if h.rooms[r.name] != r {
		return nil
	}
	delete(h.rooms, r.name)

	done := make(chan struct{})
	h.releasing[r.name] = done
	return done
}

func (h *Hub) releaseClaim(name string, done chan struct{}) {
	if done == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := h.directory.Release(ctx, name, h.node); err != nil {
		h.log.Warn().Err(err).Str("room", name).Msg("directory release failed")
	}

	h.mu.Lock()
	if h.releasing[name] == done {
		delete(h.releasing, name)
	}
	h.mu.Unlock()
	close(done)
}

// Rooms returns the names of the live rooms, sorted.
func (h *Hub) Rooms() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	live := lo.PickBy(h.rooms, func(_ string, r *Room) bool { return r.isReady() })
	names := lo.Keys(live)
	sort.Strings(names)
	return names
}

// Stop closes every connection and waits for the room coordinators to
// exit, or for ctx to expire.
func (h *Hub) Stop(ctx context.Context) error {
	h.log.Info().Strs("rooms", h.Rooms()).Msg("stopping hub")

	// Under mu so no Acquire adds to wg once Wait may have started.
	h.mu.Lock()
	h.cancel()
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
