package services

import "context"

// RoomDirectory maps a room name to the single node allowed to coordinate
// it.
type RoomDirectory interface {
	// Claim makes node the owner of room unless another node holds it.
	// It returns the current owner and whether node is that owner.
	Claim(ctx context.Context, room, node string) (owner string, ok bool, err error)
	// Release drops the claim node holds on room. Releasing a room owned by
	// someone else is a no-op.
	Release(ctx context.Context, room, node string) error
}
