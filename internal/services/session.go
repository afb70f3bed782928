package services

import (
	"context"

	"github.com/yprite/Tesla-LockChime-sub001/internal/models"
)

// SessionStore keeps the metadata attached to a connection for as long as
// the connection lives.
type SessionStore interface {
	// Attach stores meta for connID. It is called once per connection.
	Attach(ctx context.Context, connID string, meta models.SessionMetadata) error
	// Load never fails: a missing or unreadable record yields the zero value
	// and callers apply their own defaults.
	Load(ctx context.Context, connID string) models.SessionMetadata
	Detach(ctx context.Context, connID string)
}
