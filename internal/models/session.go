package models

import "time"

// SessionMetadata is written once when a connection joins a room and read
// back on every later event for that connection.
type SessionMetadata struct {
	User     string    `json:"user,omitempty"`
	Room     string    `json:"room,omitempty"`
	JoinedAt time.Time `json:"joinedAt,omitempty"`
}

// IsZero reports whether nothing was recovered for the connection.
func (m SessionMetadata) IsZero() bool {
	return m.User == "" && m.Room == "" && m.JoinedAt.IsZero()
}

// UserOr returns the stored user or def when none was stored.
func (m SessionMetadata) UserOr(def string) string {
	if m.User == "" {
		return def
	}
	return m.User
}

// RoomOr returns the stored room or def when none was stored.
func (m SessionMetadata) RoomOr(def string) string {
	if m.Room == "" {
		return def
	}
	return m.Room
}
