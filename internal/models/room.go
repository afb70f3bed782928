package models

import "time"

// RoomOwner records which node currently coordinates a room.
type RoomOwner struct {
	Room      string    `gorm:"primaryKey"`
	Node      string    `gorm:"not null;index"`
	ClaimedAt time.Time `gorm:"not null"`
}

func (RoomOwner) TableName() string {
	return "room_owners"
}
