package websocket

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/yprite/Tesla-LockChime-sub001/internal/database"
	"github.com/yprite/Tesla-LockChime-sub001/internal/session"
)

// gatedDirectory holds Claim and Release calls for one room until the test
// opens the matching gate, and records the calls in order.
type gatedDirectory struct {
	*database.LocalDirectory

	room           string
	claimGate      chan struct{}
	releaseGate    chan struct{}
	claimStarted   chan struct{}
	releaseStarted chan struct{}

	mu    sync.Mutex
	calls []string
}

func newGatedDirectory(room string) *gatedDirectory {
	return &gatedDirectory{
		LocalDirectory: database.NewLocalDirectory(),
		room:           room,
		claimStarted:   make(chan struct{}, 16),
		releaseStarted: make(chan struct{}, 16),
	}
}

func (d *gatedDirectory) record(call string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call)
}

func (d *gatedDirectory) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *gatedDirectory) Claim(ctx context.Context, room, node string) (string, bool, error) {
	if room == d.room {
		d.claimStarted <- struct{}{}
		if d.claimGate != nil {
			<-d.claimGate
		}
		d.record("claim")
	}
	return d.LocalDirectory.Claim(ctx, room, node)
}

func (d *gatedDirectory) Release(ctx context.Context, room, node string) error {
	if room == d.room {
		d.releaseStarted <- struct{}{}
		if d.releaseGate != nil {
			<-d.releaseGate
		}
		d.record("release")
	}
	return d.LocalDirectory.Release(ctx, room, node)
}

type acquireResult struct {
	room *Room
	err  error
}

func acquireAsync(h *Hub, name string) <-chan acquireResult {
	out := make(chan acquireResult, 1)
	go func() {
		room, err := h.Acquire(context.Background(), name)
		out <- acquireResult{room: room, err: err}
	}()
	return out
}

func waitAcquire(t *testing.T, ch <-chan acquireResult, within time.Duration) acquireResult {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(within):
		t.Fatalf("Acquire did not return within %s", within)
		return acquireResult{}
	}
}

func waitSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("directory call never started")
	}
}

func TestHub_SlowClaimDoesNotStallOtherRooms(t *testing.T) {
	req := require.New(t)

	dir := newGatedDirectory("slow")
	dir.claimGate = make(chan struct{})
	hub := NewHub("node-a", session.NewMemoryStore(), dir, zerolog.Nop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hub.Stop(ctx)
	})

	// Given a live room and a claim stuck in the directory
	live, err := hub.Acquire(context.Background(), "b")
	req.NoError(err)

	slow := acquireAsync(hub, "slow")
	waitSignal(t, dir.claimStarted)

	// When other rooms are acquired meanwhile
	again := waitAcquire(t, acquireAsync(hub, "b"), 500*time.Millisecond)
	fresh := waitAcquire(t, acquireAsync(hub, "c"), 500*time.Millisecond)

	// Then they are served at once
	req.NoError(again.err)
	req.Same(live, again.room)
	req.NoError(fresh.err)
	req.Equal([]string{"b", "c"}, hub.Rooms())

	// And a second caller for the pending room shares its outcome
	second := acquireAsync(hub, "slow")
	select {
	case <-second:
		t.Fatal("second Acquire returned before the claim settled")
	case <-time.After(50 * time.Millisecond):
	}

	close(dir.claimGate)
	first := waitAcquire(t, slow, 2*time.Second)
	shared := waitAcquire(t, second, 2*time.Second)
	req.NoError(first.err)
	req.NoError(shared.err)
	req.Same(first.room, shared.room)
	req.Equal([]string{"claim"}, dir.Calls())
	req.Equal([]string{"b", "c", "slow"}, hub.Rooms())
}

func TestHub_FailedClaimIsSharedAndForgotten(t *testing.T) {
	req := require.New(t)

	dir := newGatedDirectory("demo")
	dir.claimGate = make(chan struct{})
	_, ok, err := dir.LocalDirectory.Claim(context.Background(), "demo", "node-b")
	req.NoError(err)
	req.True(ok)

	hub := NewHub("node-a", session.NewMemoryStore(), dir, zerolog.Nop())
	t.Cleanup(func() { _ = hub.Stop(context.Background()) })

	first := acquireAsync(hub, "demo")
	waitSignal(t, dir.claimStarted)
	second := acquireAsync(hub, "demo")
	req.Empty(hub.Rooms())

	close(dir.claimGate)

	for _, res := range []acquireResult{waitAcquire(t, first, 2*time.Second), waitAcquire(t, second, 2*time.Second)} {
		req.ErrorIs(res.err, ErrRoomOwnedElsewhere)
		req.Nil(res.room)
	}
	req.Empty(hub.Rooms())

	// Once node-b lets go, the next Acquire claims afresh
	req.NoError(dir.LocalDirectory.Release(context.Background(), "demo", "node-b"))
	dir.claimGate = nil
	room, err := hub.Acquire(context.Background(), "demo")
	req.NoError(err)
	req.Equal("demo", room.Name())
}

func TestHub_ClaimWaitsForPendingRelease(t *testing.T) {
	req := require.New(t)

	dir := newGatedDirectory("demo")
	dir.releaseGate = make(chan struct{})
	hub := NewHub("node-a", session.NewMemoryStore(), dir, zerolog.Nop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hub.Stop(ctx)
	})

	room, err := hub.Acquire(context.Background(), "demo")
	req.NoError(err)
	waitSignal(t, dir.claimStarted)

	// Given the room retires and its release hangs in the directory
	go room.Abandon()
	waitSignal(t, dir.releaseStarted)

	// When the room is acquired again
	next := acquireAsync(hub, "demo")

	// Then other rooms are unaffected
	other := waitAcquire(t, acquireAsync(hub, "b"), 500*time.Millisecond)
	req.NoError(other.err)

	// And the new claim waits for the release to finish
	select {
	case <-dir.claimStarted:
		t.Fatal("claim started while the release was pending")
	case <-next:
		t.Fatal("Acquire returned while the release was pending")
	case <-time.After(100 * time.Millisecond):
	}

	close(dir.releaseGate)
	res := waitAcquire(t, next, 2*time.Second)
	req.NoError(res.err)
	req.NotSame(room, res.room)
	req.Equal([]string{"claim", "release", "claim"}, dir.Calls())

	owner, held := dir.Owner("demo")
	req.True(held)
	req.Equal("node-a", owner)
}
