// Package database holds the RoomDirectory backends.
package database

import "gorm.io/gorm"

// Database is the Postgres-backed room directory shared by every node of a
// deployment.
type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}
