package database

import (
	"errors"
	"fmt"

	"github.com/yprite/Tesla-LockChime-sub001/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the Postgres database at dsn and migrates it.
func (d *Database) Connect(dsn string) error {
	if dsn == "" {
		return errors.New("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}

	d.db = db

	return d.Migrate()
}

// Migrate creates or updates the room_owners table.
func (d *Database) Migrate() error {
	if err := d.db.AutoMigrate(&models.RoomOwner{}); err != nil {
		return fmt.Errorf("migrate room_owners: %w", err)
	}
	return nil
}

func (d *Database) Close() error {
	if d.db == nil {
		return nil
	}
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
