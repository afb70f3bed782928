package database

import (
	"context"
	"sync"
)

// LocalDirectory is the single-node directory: the first claimant of a room
// keeps it until it releases it.
type LocalDirectory struct {
	mu     sync.Mutex
	owners map[string]string
}

func NewLocalDirectory() *LocalDirectory {
	return &LocalDirectory{owners: make(map[string]string)}
}

func (l *LocalDirectory) Claim(_ context.Context, room, node string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	owner, ok := l.owners[room]
	if !ok {
		l.owners[room] = node
		return node, true, nil
	}
	return owner, owner == node, nil
}

func (l *LocalDirectory) Release(_ context.Context, room, node string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.owners[room] == node {
		delete(l.owners, room)
	}
	return nil
}

// Owner is an introspection helper reporting the node owning room, if any.
func (l *LocalDirectory) Owner(room string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	owner, ok := l.owners[room]
	return owner, ok
}
