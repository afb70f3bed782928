package models

import "time"

type MessageType string

const (
	TypeSystem MessageType = "system"
	TypeChat   MessageType = "chat"
)

// Message is the outbound frame fanned out to every connection of a room.
// TS is milliseconds since the Unix epoch.
type Message struct {
	Type MessageType `json:"type"`
	User string      `json:"user,omitempty"`
	Text string      `json:"text"`
	Room string      `json:"room"`
	TS   int64       `json:"ts"`
}

// Payload is the inbound frame a client sends.
type Payload struct {
	Text string  `json:"text"`
	User *string `json:"user,omitempty"`
}

func NewSystemMessage(room, text string, at time.Time) Message {
	return Message{Type: TypeSystem, Text: text, Room: room, TS: at.UnixMilli()}
}

func NewChatMessage(room, user, text string, at time.Time) Message {
	return Message{Type: TypeChat, User: user, Text: text, Room: room, TS: at.UnixMilli()}
}
