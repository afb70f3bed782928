package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "rooms.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	d := NewDatabase(db)
	require.NoError(t, d.Migrate())
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestDatabase_ClaimAndRelease(t *testing.T) {
	d := newTestDatabase(t)
	ctx := context.Background()

	type step struct {
		name      string
		action    func() (string, bool, error)
		wantOwner string
		wantOK    bool
	}
	claim := func(room, node string) func() (string, bool, error) {
		return func() (string, bool, error) { return d.Claim(ctx, room, node) }
	}
	releaseThenClaim := func(room, releaser, claimer string) func() (string, bool, error) {
		return func() (string, bool, error) {
			if err := d.Release(ctx, room, releaser); err != nil {
				return "", false, err
			}
			return d.Claim(ctx, room, claimer)
		}
	}

	steps := []step{
		{name: "first claim wins", action: claim("demo", "node-a"), wantOwner: "node-a", wantOK: true},
		{name: "second node is refused", action: claim("demo", "node-b"), wantOwner: "node-a", wantOK: false},
		{name: "owner re-claims", action: claim("demo", "node-a"), wantOwner: "node-a", wantOK: true},
		{name: "release by non-owner is a no-op", action: releaseThenClaim("demo", "node-b", "node-b"), wantOwner: "node-a", wantOK: false},
		{name: "release by owner frees the room", action: releaseThenClaim("demo", "node-a", "node-b"), wantOwner: "node-b", wantOK: true},
		{name: "rooms are independent", action: claim("other", "node-a"), wantOwner: "node-a", wantOK: true},
	}

	// Steps share the database and run in order.
	for _, s := range steps {
		owner, ok, err := s.action()
		require.NoError(t, err, s.name)
		require.Equal(t, s.wantOwner, owner, s.name)
		require.Equal(t, s.wantOK, ok, s.name)
	}
}

func TestDatabase_ReleaseNode(t *testing.T) {
	req := require.New(t)
	d := newTestDatabase(t)
	ctx := context.Background()

	// Given node-a holds two rooms and node-b one
	for _, c := range []struct{ room, node string }{
		{"a1", "node-a"}, {"a2", "node-a"}, {"b1", "node-b"},
	} {
		_, ok, err := d.Claim(ctx, c.room, c.node)
		req.NoError(err)
		req.True(ok)
	}

	// When node-a restarts
	n, err := d.ReleaseNode(ctx, "node-a")

	// Then only its claims are gone
	req.NoError(err)
	req.EqualValues(2, n)

	owner, ok, err := d.Claim(ctx, "a1", "node-b")
	req.NoError(err)
	req.True(ok)
	req.Equal("node-b", owner)

	owner, ok, err = d.Claim(ctx, "b1", "node-a")
	req.NoError(err)
	req.False(ok)
	req.Equal("node-b", owner)

	n, err = d.ReleaseNode(ctx, "node-a")
	req.NoError(err)
	req.Zero(n)
}
