package websocket

import (
	"errors"
	"fmt"
)

var (
	ErrClientQueueFull    = errors.New("client message queue is full")
	ErrClientClosed       = errors.New("client is closed")
	ErrRoomOwnedElsewhere = errors.New("room owned by another node")
	ErrHubStopped         = errors.New("hub stopped")
)

// RoomOwnedError reports the node that currently coordinates a room.
type RoomOwnedError struct {
	Room  string
	Owner string
}

func (e *RoomOwnedError) Error() string {
	return fmt.Sprintf("room %q owned by node %q", e.Room, e.Owner)
}

func (e *RoomOwnedError) Unwrap() error {
	return ErrRoomOwnedElsewhere
}
